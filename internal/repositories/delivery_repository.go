package repositories

import (
	"database/sql"
	"fmt"

	"gruzclick/internal/models"
)

type DeliveryRepository interface {
	Create(d *models.Delivery) error
	GetByID(id string) (*models.Delivery, error)
	// ListForClient — свои заявки клиента.
	ListForClient(clientID string) ([]*models.Delivery, error)
	// ListForCarrier — назначенные на перевозчика плюс свободные pending.
	ListForCarrier(userID string) ([]*models.Delivery, error)
	ListPending(limit int) ([]*models.Delivery, error)
	// UpdateStatus меняет статус только у владельца или назначенного перевозчика.
	UpdateStatus(id, userID, status string) (bool, error)
	// AssignCarrier — атомарный захват свободной заявки (status=pending).
	AssignCarrier(id, carrierID string) (bool, error)
}

type deliveryRepository struct {
	DB *sql.DB
}

func NewDeliveryRepository(db *sql.DB) DeliveryRepository {
	return &deliveryRepository{DB: db}
}

const deliveryColumns = `
	delivery_id, client_id, carrier_id, pickup_address, delivery_address, warehouse_address,
	cargo_quantity, cargo_unit, COALESCE(weight,0), delivery_date, COALESCE(delivery_price,0),
	contact_phone, status, created_at`

func scanDelivery(rows *sql.Rows) (*models.Delivery, error) {
	d := &models.Delivery{}
	var (
		carrierID    sql.NullString
		deliveryDate sql.NullTime
	)
	err := rows.Scan(&d.ID, &d.ClientID, &carrierID, &d.PickupAddress, &d.DeliveryAddress,
		&d.WarehouseAddress, &d.CargoQuantity, &d.CargoUnit, &d.Weight, &deliveryDate,
		&d.DeliveryPrice, &d.ContactPhone, &d.Status, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("delivery scan: %w", err)
	}
	if carrierID.Valid {
		d.CarrierID = &carrierID.String
	}
	if deliveryDate.Valid {
		d.DeliveryDate = &deliveryDate.Time
	}
	return d, nil
}

func (r *deliveryRepository) collect(rows *sql.Rows, err error) ([]*models.Delivery, error) {
	if err != nil {
		return nil, fmt.Errorf("delivery query: %w", err)
	}
	defer rows.Close()
	var out []*models.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *deliveryRepository) Create(d *models.Delivery) error {
	const q = `
		INSERT INTO deliveries (
			delivery_id, client_id, pickup_address, delivery_address, warehouse_address,
			cargo_quantity, cargo_unit, weight, delivery_date, delivery_price, contact_phone, status
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,'pending')
		RETURNING created_at
	`
	err := r.DB.QueryRow(q, d.ID, d.ClientID, d.PickupAddress, d.DeliveryAddress,
		d.WarehouseAddress, d.CargoQuantity, d.CargoUnit, d.Weight, d.DeliveryDate,
		d.DeliveryPrice, d.ContactPhone).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("delivery create: %w", err)
	}
	d.Status = models.DeliveryPending
	return nil
}

func (r *deliveryRepository) GetByID(id string) (*models.Delivery, error) {
	q := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE delivery_id = $1`
	rows, err := r.DB.Query(q, id)
	if err != nil {
		return nil, fmt.Errorf("delivery by id: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanDelivery(rows)
}

func (r *deliveryRepository) ListForClient(clientID string) ([]*models.Delivery, error) {
	q := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE client_id = $1 ORDER BY created_at DESC`
	return r.collect(r.DB.Query(q, clientID))
}

func (r *deliveryRepository) ListForCarrier(userID string) ([]*models.Delivery, error) {
	q := `
		SELECT ` + deliveryColumns + `
		FROM deliveries d
		WHERE d.carrier_id IN (SELECT carrier_id FROM carriers WHERE user_id = $1)
		   OR d.status = 'pending'
		ORDER BY d.created_at DESC
	`
	return r.collect(r.DB.Query(q, userID))
}

func (r *deliveryRepository) ListPending(limit int) ([]*models.Delivery, error) {
	q := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE status = 'pending' ORDER BY created_at DESC LIMIT $1`
	return r.collect(r.DB.Query(q, limit))
}

func (r *deliveryRepository) UpdateStatus(id, userID, status string) (bool, error) {
	const q = `
		UPDATE deliveries
		SET status = $3
		WHERE delivery_id = $1
		  AND (client_id = $2
		       OR carrier_id IN (SELECT carrier_id FROM carriers WHERE user_id = $2))
	`
	res, err := r.DB.Exec(q, id, userID, status)
	if err != nil {
		return false, fmt.Errorf("delivery update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delivery update status rows: %w", err)
	}
	return n == 1, nil
}

func (r *deliveryRepository) AssignCarrier(id, carrierID string) (bool, error) {
	// compare-and-swap по статусу: двое перевозчиков одну заявку не заберут
	const q = `
		UPDATE deliveries
		SET carrier_id = $2, status = 'active'
		WHERE delivery_id = $1 AND status = 'pending' AND carrier_id IS NULL
	`
	res, err := r.DB.Exec(q, id, carrierID)
	if err != nil {
		return false, fmt.Errorf("delivery assign carrier: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delivery assign carrier rows: %w", err)
	}
	return n == 1, nil
}

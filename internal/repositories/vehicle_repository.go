package repositories

import (
	"database/sql"
	"fmt"

	"gruzclick/internal/models"
)

type VehicleRepository interface {
	ListByUser(userID string) ([]*models.Vehicle, error)
	// ReplaceForUser сохраняет набор машин пользователя целиком (одна транзакция).
	ReplaceForUser(userID string, vehicles []*models.Vehicle) error
	Delete(userID string, vehicleID int64) (bool, error)
}

type vehicleRepository struct {
	DB *sql.DB
}

func NewVehicleRepository(db *sql.DB) VehicleRepository {
	return &vehicleRepository{DB: db}
}

func (r *vehicleRepository) ListByUser(userID string) ([]*models.Vehicle, error) {
	const q = `
		SELECT id, user_id, driver_name, driver_phone, driver_license_number,
		       car_brand, car_model, car_number, COALESCE(car_number_photo_url,''),
		       COALESCE(capacity_boxes,0), COALESCE(capacity_pallets,0), created_at
		FROM vehicles
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.Query(q, userID)
	if err != nil {
		return nil, fmt.Errorf("vehicles list: %w", err)
	}
	defer rows.Close()

	var out []*models.Vehicle
	for rows.Next() {
		v := &models.Vehicle{}
		if err := rows.Scan(&v.ID, &v.UserID, &v.DriverName, &v.DriverPhone, &v.DriverLicenseNumber,
			&v.CarBrand, &v.CarModel, &v.CarNumber, &v.CarNumberPhotoURL,
			&v.CapacityBoxes, &v.CapacityPallets, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("vehicles scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *vehicleRepository) ReplaceForUser(userID string, vehicles []*models.Vehicle) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("vehicles replace begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM vehicles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("vehicles replace delete: %w", err)
	}

	const ins = `
		INSERT INTO vehicles (user_id, driver_name, driver_phone, driver_license_number,
		                      car_brand, car_model, car_number, car_number_photo_url,
		                      capacity_boxes, capacity_pallets)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),$9,$10)
		RETURNING id, created_at
	`
	for _, v := range vehicles {
		v.UserID = userID
		if err := tx.QueryRow(ins, userID, v.DriverName, v.DriverPhone, v.DriverLicenseNumber,
			v.CarBrand, v.CarModel, v.CarNumber, v.CarNumberPhotoURL,
			v.CapacityBoxes, v.CapacityPallets).Scan(&v.ID, &v.CreatedAt); err != nil {
			return fmt.Errorf("vehicles replace insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("vehicles replace commit: %w", err)
	}
	return nil
}

func (r *vehicleRepository) Delete(userID string, vehicleID int64) (bool, error) {
	res, err := r.DB.Exec(`DELETE FROM vehicles WHERE id = $1 AND user_id = $2`, vehicleID, userID)
	if err != nil {
		return false, fmt.Errorf("vehicles delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("vehicles delete rows: %w", err)
	}
	return n == 1, nil
}

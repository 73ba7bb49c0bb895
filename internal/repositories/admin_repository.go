package repositories

import (
	"database/sql"
	"fmt"

	"gruzclick/internal/models"
)

type AdminRepository interface {
	Create(admin *models.Admin) error
	GetByEmail(email string) (*models.Admin, error)
	UpdatePassword(email, passwordHash string) error

	// админская сводка и выгрузки
	GetStats() (*models.AdminStats, error)
	ListUsers() ([]*models.AdminUserRow, error)
	ListDeliveries() ([]*models.Delivery, error)
	UpdateUserStatus(userID string, emailVerified bool) error
	UpdateDeliveryStatus(deliveryID, status string) error
}

type adminRepository struct {
	DB *sql.DB
}

func NewAdminRepository(db *sql.DB) AdminRepository {
	return &adminRepository{DB: db}
}

func (r *adminRepository) Create(admin *models.Admin) error {
	const q = `
		INSERT INTO admins (email, password_hash, full_name, two_factor_secret, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, created_at
	`
	err := r.DB.QueryRow(q, admin.Email, admin.PasswordHash, admin.FullName, admin.TwoFactorSecret).
		Scan(&admin.ID, &admin.CreatedAt)
	if err != nil {
		return fmt.Errorf("admin create: %w", err)
	}
	admin.IsActive = true
	return nil
}

func (r *adminRepository) GetByEmail(email string) (*models.Admin, error) {
	const q = `
		SELECT id, email, password_hash, full_name, is_active, COALESCE(two_factor_secret,''), created_at
		FROM admins
		WHERE email = $1
	`
	a := &models.Admin{}
	err := r.DB.QueryRow(q, email).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.IsActive, &a.TwoFactorSecret, &a.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("admin by email: %w", err)
	}
	return a, nil
}

func (r *adminRepository) UpdatePassword(email, passwordHash string) error {
	const q = `UPDATE admins SET password_hash = $2, updated_at = NOW() WHERE email = $1`
	if _, err := r.DB.Exec(q, email, passwordHash); err != nil {
		return fmt.Errorf("admin update password: %w", err)
	}
	return nil
}

func (r *adminRepository) GetStats() (*models.AdminStats, error) {
	stats := &models.AdminStats{}

	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		return nil, fmt.Errorf("admin stats users: %w", err)
	}
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM deliveries WHERE status = 'active'`).Scan(&stats.ActiveOrders); err != nil {
		return nil, fmt.Errorf("admin stats orders: %w", err)
	}
	if err := r.DB.QueryRow(`SELECT COALESCE(SUM(delivery_price),0) FROM deliveries WHERE status = 'completed'`).Scan(&stats.TotalRevenue); err != nil {
		return nil, fmt.Errorf("admin stats revenue: %w", err)
	}
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM carriers`).Scan(&stats.ActiveDrivers); err != nil {
		return nil, fmt.Errorf("admin stats drivers: %w", err)
	}
	return stats, nil
}

func (r *adminRepository) ListUsers() ([]*models.AdminUserRow, error) {
	const q = `
		SELECT user_id, COALESCE(phone,'-'), full_name, email, user_type, email_verified, created_at
		FROM users
		ORDER BY created_at DESC
	`
	rows, err := r.DB.Query(q)
	if err != nil {
		return nil, fmt.Errorf("admin list users: %w", err)
	}
	defer rows.Close()

	var out []*models.AdminUserRow
	for rows.Next() {
		var (
			row       models.AdminUserRow
			verified  bool
			createdAt sql.NullTime
		)
		if err := rows.Scan(&row.ID, &row.PhoneNumber, &row.FullName, &row.Email, &row.Role, &verified, &createdAt); err != nil {
			return nil, fmt.Errorf("admin list users scan: %w", err)
		}
		if verified {
			row.Status = "active"
		} else {
			row.Status = "inactive"
		}
		if createdAt.Valid {
			s := createdAt.Time.Format("2006-01-02T15:04:05Z07:00")
			row.CreatedAt = &s
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}

func (r *adminRepository) ListDeliveries() ([]*models.Delivery, error) {
	const q = `
		SELECT delivery_id, client_id, carrier_id, status, pickup_address, delivery_address,
		       COALESCE(delivery_price,0), created_at
		FROM deliveries
		ORDER BY created_at DESC
	`
	rows, err := r.DB.Query(q)
	if err != nil {
		return nil, fmt.Errorf("admin list deliveries: %w", err)
	}
	defer rows.Close()

	var out []*models.Delivery
	for rows.Next() {
		d := &models.Delivery{}
		var carrierID sql.NullString
		if err := rows.Scan(&d.ID, &d.ClientID, &carrierID, &d.Status,
			&d.PickupAddress, &d.DeliveryAddress, &d.DeliveryPrice, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("admin list deliveries scan: %w", err)
		}
		if carrierID.Valid {
			d.CarrierID = &carrierID.String
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *adminRepository) UpdateUserStatus(userID string, emailVerified bool) error {
	const q = `UPDATE users SET email_verified = $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.DB.Exec(q, userID, emailVerified); err != nil {
		return fmt.Errorf("admin update user status: %w", err)
	}
	return nil
}

func (r *adminRepository) UpdateDeliveryStatus(deliveryID, status string) error {
	const q = `UPDATE deliveries SET status = $2 WHERE delivery_id = $1`
	if _, err := r.DB.Exec(q, deliveryID, status); err != nil {
		return fmt.Errorf("admin update delivery status: %w", err)
	}
	return nil
}

package repositories

import (
	"database/sql"
	"fmt"

	"gruzclick/internal/models"
)

// LoginLogRepository — журнал попыток входа. Счётчики брутфорса живут
// в security.AttemptStore, журнал нужен для аудита.
type LoginLogRepository interface {
	Create(l *models.LoginLog) error
}

type loginLogRepository struct {
	DB *sql.DB
}

func NewLoginLogRepository(db *sql.DB) LoginLogRepository {
	return &loginLogRepository{DB: db}
}

func (r *loginLogRepository) Create(l *models.LoginLog) error {
	const q = `
		INSERT INTO login_logs (user_id, email, ip_address, user_agent, success, failure_reason)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''))
		RETURNING id, created_at
	`
	if err := r.DB.QueryRow(q, l.UserID, l.Email, l.IPAddress, l.UserAgent, l.Success, l.FailureReason).
		Scan(&l.ID, &l.CreatedAt); err != nil {
		return fmt.Errorf("login log create: %w", err)
	}
	return nil
}

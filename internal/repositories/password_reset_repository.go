package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"gruzclick/internal/models"
)

type PasswordResetRepository interface {
	Create(email, codeHash string, expiresAt time.Time) (*models.PasswordResetCode, error)
	// GetLatestActive — последний неиспользованный и непросроченный код email-а.
	GetLatestActive(email string, now time.Time) (*models.PasswordResetCode, error)
	// MarkUsed — used_at проставляется один раз; повтор вернёт false.
	MarkUsed(id int64) (bool, error)
	IncrementAttempts(id int64) (int, error)
	ExpireNow(id int64) error
}

type passwordResetRepository struct {
	DB *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{DB: db}
}

func (r *passwordResetRepository) Create(email, codeHash string, expiresAt time.Time) (*models.PasswordResetCode, error) {
	const q = `
		INSERT INTO password_reset_codes (email, code_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	pr := &models.PasswordResetCode{Email: email, CodeHash: codeHash, ExpiresAt: expiresAt}
	if err := r.DB.QueryRow(q, email, codeHash, expiresAt).Scan(&pr.ID, &pr.CreatedAt); err != nil {
		return nil, fmt.Errorf("password reset create: %w", err)
	}
	return pr, nil
}

func (r *passwordResetRepository) GetLatestActive(email string, now time.Time) (*models.PasswordResetCode, error) {
	const q = `
		SELECT id, email, code_hash, expires_at, used_at, attempts, created_at
		FROM password_reset_codes
		WHERE email = $1 AND used_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	pr := &models.PasswordResetCode{}
	var usedAt sql.NullTime
	err := r.DB.QueryRow(q, email, now).Scan(&pr.ID, &pr.Email, &pr.CodeHash, &pr.ExpiresAt, &usedAt, &pr.Attempts, &pr.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("password reset latest: %w", err)
	}
	if usedAt.Valid {
		pr.UsedAt = &usedAt.Time
	}
	return pr, nil
}

func (r *passwordResetRepository) MarkUsed(id int64) (bool, error) {
	const q = `
		UPDATE password_reset_codes
		SET used_at = NOW()
		WHERE id = $1 AND used_at IS NULL
	`
	res, err := r.DB.Exec(q, id)
	if err != nil {
		return false, fmt.Errorf("password reset mark used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("password reset mark used rows: %w", err)
	}
	return n == 1, nil
}

func (r *passwordResetRepository) IncrementAttempts(id int64) (int, error) {
	const q = `
		UPDATE password_reset_codes
		SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts
	`
	var attempts int
	if err := r.DB.QueryRow(q, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("password reset increment attempts: %w", err)
	}
	return attempts, nil
}

func (r *passwordResetRepository) ExpireNow(id int64) error {
	const q = `UPDATE password_reset_codes SET expires_at = NOW() WHERE id = $1`
	if _, err := r.DB.Exec(q, id); err != nil {
		return fmt.Errorf("password reset expire: %w", err)
	}
	return nil
}

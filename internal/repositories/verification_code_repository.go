package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"gruzclick/internal/models"
)

type VerificationCodeRepository interface {
	// Create пишет новую отправку и протухает предыдущие неиспользованные
	// коды той же пары (destination, channel) — одна транзакция, живой код один.
	Create(v *models.VerificationCode) error
	GetActive(destination, channel string) (*models.VerificationCode, error)
	CountRecentSends(destination, channel string, since time.Time) (int, error)
	// MarkUsed — атомарный переход used=false→true; вторая попытка вернёт false.
	MarkUsed(id int64) (bool, error)
	IncrementAttempts(id int64) (int, error)
	ExpireNow(id int64) error
	Delete(id int64) error
}

type verificationCodeRepository struct {
	DB *sql.DB
}

func NewVerificationCodeRepository(db *sql.DB) VerificationCodeRepository {
	return &verificationCodeRepository{DB: db}
}

func (r *verificationCodeRepository) Create(v *models.VerificationCode) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("verification create begin: %w", err)
	}
	defer tx.Rollback()

	// Новая отправка гасит прежние живые коды пары. Строки остаются:
	// по ним CountRecentSends считает троттлинг повторных отправок.
	const supersede = `
		UPDATE verification_codes
		SET expires_at = NOW()
		WHERE destination = $1 AND channel = $2 AND used = FALSE AND expires_at > NOW()
	`
	if _, err := tx.Exec(supersede, v.Destination, v.Channel); err != nil {
		return fmt.Errorf("verification supersede: %w", err)
	}

	const ins = `
		INSERT INTO verification_codes
			(user_id, destination, channel, code_hash, sent_at, expires_at, used, attempts)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, 0)
		RETURNING id
	`
	if err := tx.QueryRow(ins, v.UserID, v.Destination, v.Channel, v.CodeHash, v.SentAt, v.ExpiresAt).Scan(&v.ID); err != nil {
		return fmt.Errorf("verification create: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("verification create commit: %w", err)
	}
	return nil
}

func (r *verificationCodeRepository) GetActive(destination, channel string) (*models.VerificationCode, error) {
	const q = `
		SELECT id, user_id, destination, channel, code_hash, sent_at, expires_at, used, used_at, attempts
		FROM verification_codes
		WHERE destination = $1 AND channel = $2 AND used = FALSE
		ORDER BY sent_at DESC
		LIMIT 1
	`
	row := r.DB.QueryRow(q, destination, channel)
	v := &models.VerificationCode{}
	var (
		userID sql.NullString
		usedAt sql.NullTime
	)
	err := row.Scan(&v.ID, &userID, &v.Destination, &v.Channel, &v.CodeHash,
		&v.SentAt, &v.ExpiresAt, &v.Used, &usedAt, &v.Attempts)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("verification get active: %w", err)
	}
	if userID.Valid {
		v.UserID = &userID.String
	}
	if usedAt.Valid {
		v.UsedAt = &usedAt.Time
	}
	return v, nil
}

func (r *verificationCodeRepository) CountRecentSends(destination, channel string, since time.Time) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM verification_codes
		WHERE destination = $1 AND channel = $2 AND sent_at >= $3
	`
	var c int
	if err := r.DB.QueryRow(q, destination, channel, since).Scan(&c); err != nil {
		return 0, fmt.Errorf("verification count recent: %w", err)
	}
	return c, nil
}

func (r *verificationCodeRepository) MarkUsed(id int64) (bool, error) {
	const q = `
		UPDATE verification_codes
		SET used = TRUE, used_at = NOW()
		WHERE id = $1 AND used = FALSE
	`
	res, err := r.DB.Exec(q, id)
	if err != nil {
		return false, fmt.Errorf("verification mark used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("verification mark used rows: %w", err)
	}
	return n == 1, nil
}

func (r *verificationCodeRepository) IncrementAttempts(id int64) (int, error) {
	const q = `
		UPDATE verification_codes
		SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts
	`
	var attempts int
	if err := r.DB.QueryRow(q, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("verification increment attempts: %w", err)
	}
	return attempts, nil
}

// ExpireNow — моментально протухаем код (превышение попыток).
func (r *verificationCodeRepository) ExpireNow(id int64) error {
	if _, err := r.DB.Exec(`UPDATE verification_codes SET expires_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("verification expire now: %w", err)
	}
	return nil
}

// Delete — отзыв кода (например, канал доставки вернул ошибку).
func (r *verificationCodeRepository) Delete(id int64) error {
	if _, err := r.DB.Exec(`DELETE FROM verification_codes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("verification delete: %w", err)
	}
	return nil
}

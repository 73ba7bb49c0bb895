package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"gruzclick/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	CreateCarrier(c *models.Carrier) error
	GetByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByPhone(phone string) (*models.User, error)
	GetByTelegram(username string) (*models.User, error)
	UpdateProfile(user *models.User) error
	UpdatePassword(userID, passwordHash string) error

	// флаги верификации: только false→true
	MarkVerified(userID, channel string) error

	// учёт неудачных входов (аккаунтная половина лимитера, персистентная)
	RecordLoginFailure(email string) (attempts int, err error)
	SetLockout(email string, until time.Time) error
	ClearLoginFailures(email string, ip string) error

	// refresh-токены
	UpdateRefresh(userID, token string, expiresAt time.Time) error
	RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	GetByRefreshToken(token string) (*models.User, error)

	// telegram
	LinkTelegramChat(username string, chatID int64) error
	ListTelegramChatIDs() ([]int64, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	user_id, email, phone, password_hash, full_name, user_type, entity_type,
	COALESCE(inn,''), COALESCE(organization_name,''), COALESCE(telegram,''),
	COALESCE(telegram_chat_id,0), COALESCE(rating,0), COALESCE(reviews_count,0),
	email_verified, phone_verified, telegram_verified,
	login_attempts, locked_until, COALESCE(last_login_ip,''),
	refresh_token, refresh_expires_at, refresh_revoked,
	created_at, updated_at`

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var (
		lockedUntil sql.NullTime
		rt          sql.NullString
		rte         sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &u.FullName, &u.UserType, &u.EntityType,
		&u.INN, &u.OrganizationName, &u.Telegram,
		&u.TelegramChatID, &u.Rating, &u.ReviewsCount,
		&u.EmailVerified, &u.PhoneVerified, &u.TelegramVerified,
		&u.LoginAttempts, &lockedUntil, &u.LastLoginIP,
		&rt, &rte, &u.RefreshRevoked,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user scan: %w", err)
	}
	if lockedUntil.Valid {
		u.LockedUntil = &lockedUntil.Time
	}
	if rt.Valid {
		u.RefreshToken = &rt.String
	}
	if rte.Valid {
		u.RefreshExpiresAt = &rte.Time
	}
	return u, nil
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (
			user_id, email, phone, password_hash, full_name, user_type, entity_type,
			inn, organization_name, telegram,
			email_verified, phone_verified, telegram_verified,
			login_attempts, last_login_ip
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),NULLIF($9,''),NULLIF($10,''),FALSE,FALSE,FALSE,0,$11)
		RETURNING created_at, updated_at
	`
	err := r.DB.QueryRow(q,
		user.ID, user.Email, user.Phone, user.PasswordHash, user.FullName,
		user.UserType, user.EntityType, user.INN, user.OrganizationName,
		user.Telegram, user.LastLoginIP,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

func (r *userRepository) CreateCarrier(c *models.Carrier) error {
	const q = `
		INSERT INTO carriers (user_id, vehicle_type, capacity, vehicle_status)
		VALUES ($1, $2, $3, 'free')
		RETURNING carrier_id
	`
	if err := r.DB.QueryRow(q, c.UserID, c.VehicleType, c.Capacity).Scan(&c.ID); err != nil {
		return fmt.Errorf("carrier create: %w", err)
	}
	c.VehicleStatus = "free"
	return nil
}

func (r *userRepository) GetByID(id string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return r.scanUser(r.DB.QueryRow(q, id))
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.DB.QueryRow(q, email))
}

func (r *userRepository) GetByPhone(phone string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	return r.scanUser(r.DB.QueryRow(q, phone))
}

func (r *userRepository) GetByTelegram(username string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE telegram = $1`
	return r.scanUser(r.DB.QueryRow(q, username))
}

func (r *userRepository) UpdateProfile(user *models.User) error {
	const q = `
		UPDATE users
		SET full_name = $2, phone = $3, telegram = NULLIF($4,''),
		    organization_name = NULLIF($5,''), inn = NULLIF($6,''), updated_at = NOW()
		WHERE user_id = $1
	`
	if _, err := r.DB.Exec(q, user.ID, user.FullName, user.Phone, user.Telegram, user.OrganizationName, user.INN); err != nil {
		return fmt.Errorf("user update profile: %w", err)
	}
	return nil
}

func (r *userRepository) UpdatePassword(userID, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.DB.Exec(q, userID, passwordHash); err != nil {
		return fmt.Errorf("user update password: %w", err)
	}
	return nil
}

// MarkVerified проставляет флаг канала; обратного перехода нет.
func (r *userRepository) MarkVerified(userID, channel string) error {
	var col string
	switch channel {
	case models.ChannelEmail:
		col = "email_verified"
	case models.ChannelSMS:
		col = "phone_verified"
	case models.ChannelTelegram:
		col = "telegram_verified"
	default:
		return fmt.Errorf("unknown verification channel: %s", channel)
	}
	q := `UPDATE users SET ` + col + ` = TRUE, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.DB.Exec(q, userID); err != nil {
		return fmt.Errorf("user mark verified: %w", err)
	}
	return nil
}

// RecordLoginFailure — атомарный инкремент счётчика (UPDATE ... RETURNING,
// никакого check-then-act на стороне приложения).
func (r *userRepository) RecordLoginFailure(email string) (int, error) {
	const q = `
		UPDATE users
		SET login_attempts = login_attempts + 1, updated_at = NOW()
		WHERE email = $1
		RETURNING login_attempts
	`
	var attempts int
	if err := r.DB.QueryRow(q, email).Scan(&attempts); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("user record login failure: %w", err)
	}
	return attempts, nil
}

func (r *userRepository) SetLockout(email string, until time.Time) error {
	const q = `UPDATE users SET locked_until = $2 WHERE email = $1`
	if _, err := r.DB.Exec(q, email, until); err != nil {
		return fmt.Errorf("user set lockout: %w", err)
	}
	return nil
}

func (r *userRepository) ClearLoginFailures(email string, ip string) error {
	const q = `
		UPDATE users
		SET login_attempts = 0, locked_until = NULL, last_login_ip = $2, updated_at = NOW()
		WHERE email = $1
	`
	if _, err := r.DB.Exec(q, email, ip); err != nil {
		return fmt.Errorf("user clear login failures: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateRefresh(userID, token string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET refresh_token = $2, refresh_expires_at = $3, refresh_revoked = FALSE
		WHERE user_id = $1
	`
	if _, err := r.DB.Exec(q, userID, token, expiresAt); err != nil {
		return fmt.Errorf("user update refresh: %w", err)
	}
	return nil
}

// RotateRefresh — замена строго по старому значению: конкурентная ротация
// того же токена пройдёт только у одного из запросов.
func (r *userRepository) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	q := `
		UPDATE users
		SET refresh_token = $2, refresh_expires_at = $3
		WHERE refresh_token = $1 AND refresh_revoked = FALSE
		RETURNING ` + userColumns
	return r.scanUser(r.DB.QueryRow(q, oldToken, newToken, newExpiresAt))
}

func (r *userRepository) GetByRefreshToken(token string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE refresh_token = $1`
	return r.scanUser(r.DB.QueryRow(q, token))
}

func (r *userRepository) LinkTelegramChat(username string, chatID int64) error {
	const q = `UPDATE users SET telegram_chat_id = $2, updated_at = NOW() WHERE telegram = $1`
	if _, err := r.DB.Exec(q, username, chatID); err != nil {
		return fmt.Errorf("user link telegram chat: %w", err)
	}
	return nil
}

func (r *userRepository) ListTelegramChatIDs() ([]int64, error) {
	const q = `SELECT telegram_chat_id FROM users WHERE telegram_chat_id IS NOT NULL AND telegram_chat_id <> 0`
	rows, err := r.DB.Query(q)
	if err != nil {
		return nil, fmt.Errorf("user list telegram chats: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("user list telegram chats: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

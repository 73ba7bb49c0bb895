package models

import "time"

// User — участник маркетплейса (заказчик или перевозчик).
type User struct {
	ID               string  `json:"user_id"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	PasswordHash     string  `json:"-"` // не отдаём наружу
	FullName         string  `json:"full_name"`
	UserType         string  `json:"user_type"`   // client | carrier
	EntityType       string  `json:"entity_type"` // individual | legal
	INN              string  `json:"inn,omitempty"`
	OrganizationName string  `json:"organization_name,omitempty"`
	Telegram         string  `json:"telegram,omitempty"` // username без @
	TelegramChatID   int64   `json:"-"`
	Rating           float64 `json:"rating"`
	ReviewsCount     int     `json:"reviews_count"`

	EmailVerified    bool `json:"email_verified"`
	PhoneVerified    bool `json:"phone_verified"`
	TelegramVerified bool `json:"telegram_verified"`

	// учёт неудачных входов (см. security.Limiter — аккаунтная половина)
	LoginAttempts int        `json:"-"`
	LockedUntil   *time.Time `json:"-"`
	LastLoginIP   string     `json:"-"`

	// refresh-хранение в БД
	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`
	RefreshRevoked   bool       `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Verified — активирован ли аккаунт хотя бы по одному каналу.
// Вход разрешён только после подтверждения (pending_verification → active).
func (u *User) Verified() bool {
	return u.EmailVerified || u.PhoneVerified || u.TelegramVerified
}

// Carrier — запись перевозчика, создаётся вместе с User при user_type=carrier.
type Carrier struct {
	ID            int64   `json:"carrier_id"`
	UserID        string  `json:"user_id"`
	VehicleType   string  `json:"vehicle_type"`
	Capacity      float64 `json:"capacity"`
	VehicleStatus string  `json:"vehicle_status"` // free | busy
}

type RegisterRequest struct {
	Email            string  `json:"email"`
	Password         string  `json:"password"`
	FullName         string  `json:"full_name"`
	Phone            string  `json:"phone"`
	UserType         string  `json:"user_type"`
	EntityType       string  `json:"entity_type"`
	INN              string  `json:"inn"`
	OrganizationName string  `json:"organization_name"`
	VehicleType      string  `json:"vehicle_type"`
	Capacity         float64 `json:"capacity"`
}

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

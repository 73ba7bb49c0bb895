package models

import "time"

// Каналы доставки одноразовых кодов.
const (
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
	ChannelTelegram = "telegram"
)

// VerificationCode — одна отправка кода. Храним только bcrypt-хэш,
// TTL и счётчик попыток; на пару (destination, channel) живёт максимум
// один действующий код — новая отправка протухает предыдущие, строки
// остаются для учёта троттлинга повторных отправок.
type VerificationCode struct {
	ID          int64      `json:"id"`
	UserID      *string    `json:"user_id,omitempty"` // NULL, если аккаунта ещё нет
	Destination string     `json:"destination"`       // email / телефон / telegram username
	Channel     string     `json:"channel"`
	CodeHash    string     `json:"-"`
	SentAt      time.Time  `json:"sent_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Used        bool       `json:"used"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	Attempts    int        `json:"attempts"`
}

package models

import "time"

// PasswordResetCode — код восстановления пароля (email-канал).
// Код одноразовый: used_at проставляется ровно один раз.
type PasswordResetCode struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	CodeHash  string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	Attempts  int        `json:"attempts"`
	CreatedAt time.Time  `json:"created_at"`
}

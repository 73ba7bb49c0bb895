package models

import "time"

// LoginLog — журнал попыток входа; по нему же считается IP-окно лимитера
// при БД-бэкенде (см. security.Limiter).
type LoginLog struct {
	ID            int64     `json:"id"`
	UserID        *string   `json:"user_id,omitempty"`
	Email         string    `json:"email"`
	IPAddress     string    `json:"ip_address"`
	UserAgent     string    `json:"user_agent"`
	Success       bool      `json:"success"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Внутренние коды причин отказа. Наружу уходит обобщённое сообщение,
// в журнал — точная причина.
const (
	FailureBadCredentials = "bad_credentials"
	FailureLockedOut      = "locked_out"
	FailureUnverified     = "unverified"
	FailureRateLimited    = "rate_limited"
)

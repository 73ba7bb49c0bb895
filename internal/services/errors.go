package services

import (
	"errors"
	"fmt"
	"time"
)

// Сентинелы сервисного слоя. Хендлеры переводят их в HTTP-статусы;
// наружу уходят обобщённые сообщения, точная причина — в login_logs.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnverified         = errors.New("verification required")
	ErrAccountDisabled    = errors.New("account is deactivated")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPhoneTaken         = errors.New("phone already registered")

	ErrCodeInvalid     = errors.New("invalid or expired code")
	ErrCodeExpired     = errors.New("code expired")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrResendThrottled = errors.New("resend throttled")

	ErrInvalidToken = errors.New("invalid or expired token")
)

// ValidationError — ошибка входных данных, всегда 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// RateLimitedError — отказ брутфорс-защиты, 429 + Retry-After.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many attempts, retry after %s", e.RetryAfter)
}

// DeliveryError — внешний канал не доставил код; код отозван.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

package security

import (
	"time"
)

// Причины отказа лимитера.
const (
	ReasonLockedOut   = "locked_out"
	ReasonRateLimited = "rate_limited"
)

// Decision — ответ лимитера на попытку.
type Decision struct {
	Allowed           bool
	Reason            string
	RetryAfter        time.Duration
	AttemptsRemaining int
}

// AttemptStore — хранилище окон неудачных попыток и блокировок.
// Все операции атомарны по ключу: между инстансами общее состояние
// держит Redis-реализация, в тестах и одиночном инстансе — память.
type AttemptStore interface {
	// RecordFailure регистрирует неудачу, отбрасывает записи старше окна
	// и возвращает число неудач внутри окна (включая текущую).
	RecordFailure(key string, now time.Time, window time.Duration) (int, error)
	SetLockout(key string, until time.Time) error
	// GetLockout возвращает срок блокировки; ok=false — блокировки нет.
	GetLockout(key string) (until time.Time, ok bool, err error)
	// Clear сбрасывает и окно, и блокировку ключа.
	Clear(key string) error
}

// Limiter — брутфорс-защита: скользящее окно W, порог T, блокировка L.
// Ключи произвольные; оркестратор держит два лимитера — по IP и по аккаунту.
type Limiter struct {
	store     AttemptStore
	Threshold int
	Window    time.Duration
	Lockout   time.Duration

	// Now подменяется в тестах.
	Now func() time.Time
}

func NewLimiter(store AttemptStore, threshold int, window, lockout time.Duration) *Limiter {
	return &Limiter{
		store:     store,
		Threshold: threshold,
		Window:    window,
		Lockout:   lockout,
		Now:       time.Now,
	}
}

// Check — можно ли пускать попытку по ключу. Сама попытка не учитывается:
// неудачи регистрирует Fail, успех снимает всё через Clear.
func (l *Limiter) Check(key string) (Decision, error) {
	now := l.Now()

	until, locked, err := l.store.GetLockout(key)
	if err != nil {
		return Decision{}, err
	}
	if locked {
		if now.Before(until) {
			return Decision{
				Allowed:    false,
				Reason:     ReasonLockedOut,
				RetryAfter: until.Sub(now).Round(time.Second),
			}, nil
		}
		// Блокировка истекла — окно начинается заново.
		if err := l.store.Clear(key); err != nil {
			return Decision{}, err
		}
	}
	return Decision{Allowed: true, AttemptsRemaining: l.Threshold}, nil
}

// Fail регистрирует неудачную попытку; по достижении порога ставит блокировку.
func (l *Limiter) Fail(key string) (Decision, error) {
	now := l.Now()
	count, err := l.store.RecordFailure(key, now, l.Window)
	if err != nil {
		return Decision{}, err
	}
	if count >= l.Threshold {
		until := now.Add(l.Lockout)
		if err := l.store.SetLockout(key, until); err != nil {
			return Decision{}, err
		}
		return Decision{
			Allowed:    false,
			Reason:     ReasonRateLimited,
			RetryAfter: l.Lockout,
		}, nil
	}
	return Decision{Allowed: true, AttemptsRemaining: l.Threshold - count}, nil
}

// Clear — вызывается только при полностью успешном входе.
func (l *Limiter) Clear(key string) error {
	return l.store.Clear(key)
}

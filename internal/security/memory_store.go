package security

import (
	"sync"
	"time"
)

// MemoryStore — потокобезопасное хранилище в памяти процесса.
// Годится для тестов и одиночного инстанса; при нескольких инстансах
// состояние обязано жить в Redis (см. RedisStore).
type MemoryStore struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	lockouts map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		attempts: make(map[string][]time.Time),
		lockouts: make(map[string]time.Time),
	}
}

func (s *MemoryStore) RecordFailure(key string, now time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-window)
	kept := s.attempts[key][:0]
	for _, t := range s.attempts[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	s.attempts[key] = kept
	return len(kept), nil
}

func (s *MemoryStore) SetLockout(key string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockouts[key] = until
	return nil
}

func (s *MemoryStore) GetLockout(key string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.lockouts[key]
	return until, ok, nil
}

func (s *MemoryStore) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, key)
	delete(s.lockouts, key)
	return nil
}

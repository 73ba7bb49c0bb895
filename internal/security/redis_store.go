package security

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore — общее состояние лимитера для нескольких инстансов.
// Окно — sorted set с таймстемпами, блокировка — ключ с TTL.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) attemptsKey(key string) string { return "ratelimit:attempts:" + key }
func (s *RedisStore) lockoutKey(key string) string  { return "ratelimit:lockout:" + key }

func (s *RedisStore) RecordFailure(key string, now time.Time, window time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	k := s.attemptsKey(key)
	cutoff := now.Add(-window).UnixNano()

	pipe := s.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", fmt.Sprintf("%d", cutoff))
	pipe.ZAdd(ctx, k, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	card := pipe.ZCard(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("ratelimit record failure: %w", err)
	}
	return int(card.Val()), nil
}

func (s *RedisStore) SetLockout(key string, until time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	ttl := time.Until(until)
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := s.rdb.Set(ctx, s.lockoutKey(key), until.UnixNano(), ttl).Err(); err != nil {
		return fmt.Errorf("ratelimit set lockout: %w", err)
	}
	return nil
}

func (s *RedisStore) GetLockout(key string) (time.Time, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	v, err := s.rdb.Get(ctx, s.lockoutKey(key)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("ratelimit get lockout: %w", err)
	}
	ns, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("ratelimit lockout value: %w", err)
	}
	return time.Unix(0, ns), true, nil
}

func (s *RedisStore) Clear(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := s.rdb.Del(ctx, s.attemptsKey(key), s.lockoutKey(key)).Err(); err != nil {
		return fmt.Errorf("ratelimit clear: %w", err)
	}
	return nil
}

// Package quota keeps per-user daily view counters in Redis.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"LajmeCurator/internal/ports"
)

const (
	keyPrefix = "lajme:views"
	keyTTL    = 48 * time.Hour
)

// RedisStore implements ports.QuotaCounter with INCR/DECR on day-scoped keys.
type RedisStore struct {
	client redis.Cmdable
}

var _ ports.QuotaCounter = (*RedisStore)(nil)

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// NewClient builds a client from a redis:// URL, falling back to a plain
// host:port address.
func NewClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		opts = &redis.Options{Addr: rawURL}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Key returns the counter key of userID for the UTC day containing day.
func Key(userID string, day time.Time) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, userID, day.UTC().Format("20060102"))
}

// Increment bumps the counter and refreshes its expiry.
func (s *RedisStore) Increment(ctx context.Context, userID string, day time.Time) (int64, error) {
	key := Key(userID, day)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}
	return incr.Val(), nil
}

// Decrement undoes one Increment. It never drives the counter below zero.
func (s *RedisStore) Decrement(ctx context.Context, userID string, day time.Time) error {
	key := Key(userID, day)

	n, err := s.client.Decr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("decrement %s: %w", key, err)
	}
	if n < 0 {
		if err := s.client.Set(ctx, key, 0, keyTTL).Err(); err != nil {
			return fmt.Errorf("reset %s: %w", key, err)
		}
	}
	return nil
}

// Count reads the counter; a missing key counts as zero.
func (s *RedisStore) Count(ctx context.Context, userID string, day time.Time) (int64, error) {
	key := Key(userID, day)

	n, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	return n, nil
}

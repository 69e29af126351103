package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares fixed windows across instances through Redis. INCR plus a
// first-write expiry gives the same window semantics as the in-process store.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore builds a Redis-backed window store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:"}
}

// Incr counts one attempt for the key. The expiry is set only when the key is
// created, so the window resets wholesale at a fixed interval.
func (s *RedisStore) Incr(ctx context.Context, key string, windowLen time.Duration) (int64, time.Time, error) {
	fullKey := s.prefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, windowLen)
	ttl := pipe.PTTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("redis incr %s: %w", key, err)
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = windowLen
	}
	return incr.Val(), time.Now().Add(remaining), nil
}

package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "gate:ratelimit:"

// RedisStore is a fixed window counter shared across replicas.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store backed by the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Allow increments the window counter for key. The first hit in a
// window sets the expiry, so the counter clears itself without a
// cleanup job.
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	redisKey := redisKeyPrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("increment rate limit counter: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return Result{}, fmt.Errorf("set rate limit window: %w", err)
		}
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}
	resetAt := time.Now().Add(ttl)

	if count > int64(limit) {
		return Result{Allowed: false, ResetAt: resetAt}, nil
	}
	return Result{
		Allowed:   true,
		Remaining: limit - int(count),
		ResetAt:   resetAt,
	}, nil
}

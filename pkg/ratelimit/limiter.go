package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter gates checkout attempts per caller key (usually client IP).
type Limiter interface {
	// Allow reports whether the caller may proceed within the current window.
	Allow(ctx context.Context, key string) (bool, error)
}

// counterClient is the slice of the redis API the limiter touches.
// *redis.Client satisfies it.
type counterClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisLimiter is a fixed-window counter on INCR + EXPIRE.
type RedisLimiter struct {
	client counterClient
	max    int64
	window time.Duration
	prefix string
}

func NewRedisLimiter(client counterClient, max int64, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		max:    max,
		window: window,
		prefix: "ratelimit:checkout:",
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.prefix + key

	n, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit incr: %w", err)
	}
	// First hit in the window owns the expiry
	if n == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("ratelimit expire: %w", err)
		}
	}

	return n <= l.max, nil
}

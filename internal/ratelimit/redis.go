package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "planforge:ratelimit:"

// Redis is a fixed-window limiter shared by every instance pointing at the
// same Redis. Calls over the limit still increment the counter but are
// reported as rejected with zero remaining.
type Redis struct {
	client   redis.Cmdable
	interval time.Duration
	now      func() time.Time
}

var _ Limiter = (*Redis)(nil)

// NewRedis creates a Redis-backed limiter.
func NewRedis(client redis.Cmdable, interval time.Duration) *Redis {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Redis{client: client, interval: interval, now: time.Now}
}

// Check counts one call for token.
func (l *Redis) Check(ctx context.Context, limit int, token string) (Result, error) {
	key := redisKeyPrefix + token

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", token, err)
	}

	count := incr.Val()
	ttl := pttl.Val()
	if ttl <= 0 {
		// New window: the key was just created by INCR and has no expiry yet.
		if err := l.client.PExpire(ctx, key, l.interval).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit %s: set window: %w", token, err)
		}
		ttl = l.interval
	}

	res := Result{Limit: limit, ResetAt: l.now().Add(ttl)}
	if count > int64(limit) {
		return res, nil
	}
	res.Success = true
	res.Remaining = limit - int(count)
	return res, nil
}

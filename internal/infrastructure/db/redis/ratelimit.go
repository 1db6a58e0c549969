package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// RateLimiter is a fixed-window counter shared by every instance of the
// service. Key format: ratelimit:<client>:<window_start_unix>
type RateLimiter struct {
	client *redis.Client
	limit  int
	period time.Duration
	now    func() time.Time
}

// NewRateLimiter allows limit requests per client in each period.
func NewRateLimiter(client *redis.Client, limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, period: period, now: time.Now}
}

// Allow counts one request for client in the current window.
func (l *RateLimiter) Allow(ctx context.Context, client string) (Decision, error) {
	start, reset := window(l.now(), l.period)
	key := fmt.Sprintf("ratelimit:%s:%d", client, start.Unix())

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.period)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}

	return decide(incr.Val(), l.limit, reset), nil
}

// window returns the start of the fixed window containing now and the time
// left until it closes.
func window(now time.Time, period time.Duration) (time.Time, time.Duration) {
	start := now.Truncate(period)
	return start, start.Add(period).Sub(now)
}

func decide(count int64, limit int, reset time.Duration) Decision {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetIn:   reset,
	}
}

// Package ratelimit throttles per-key actions with a Redis sliding window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// OTP resends: three per invitee per ten minutes.
const (
	ResendLimit  = 3
	ResendWindow = 10 * time.Minute
)

// The window is a sorted set of hit timestamps in milliseconds. Expired
// hits are trimmed before counting so the check and the insert are one
// atomic step.
var slidingWindowScript = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= limit then
	return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// SlidingWindow admits at most limit hits per key in any window-long span.
type SlidingWindow struct {
	rdb    redis.Scripter
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewSlidingWindow creates a SlidingWindow.
func NewSlidingWindow(rdb redis.Scripter, limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{rdb: rdb, limit: limit, window: window, now: time.Now}
}

// NewResendLimiter is the window used for OTP resends.
func NewResendLimiter(rdb redis.Scripter) *SlidingWindow {
	return NewSlidingWindow(rdb, ResendLimit, ResendWindow)
}

// Allow records a hit for key and reports whether it fits in the window.
func (l *SlidingWindow) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now().UnixMilli()
	res, err := slidingWindowScript.Run(ctx, l.rdb, []string{key},
		now, l.window.Milliseconds(), l.limit, fmt.Sprintf("%d-%s", now, uuid.NewString()),
	).Int()
	if err != nil {
		return false, fmt.Errorf("sliding window: %w", err)
	}
	return res == 1, nil
}

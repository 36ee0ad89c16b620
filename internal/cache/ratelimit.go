package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitResult is the outcome of taking one token from a bucket.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// bucket describes a token bucket: refill rate in tokens per second,
// capacity, and how long an idle bucket survives in Redis.
type bucket struct {
	rate  float64
	burst int
	idle  time.Duration
}

// Idle user buckets live long enough to refill completely at the slowest
// plan rate. Login buckets refill in seconds.
const (
	userBucketIdle = 2 * time.Minute
	ipBucketIdle   = 10 * time.Second
)

// takeTokenScript refills the bucket for the time elapsed since the last
// call and consumes one token if available. Timestamps are milliseconds so
// sub-second bursts refill correctly.
//
// Returns {allowed, retry_after_ms, remaining}.
var takeTokenScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local idle = tonumber(ARGV[4])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1]) or burst
local ts = tonumber(state[2]) or now

if now > ts then
  tokens = math.min(burst, tokens + (now - ts) / 1000 * rate)
end

local allowed = 0
local wait = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  wait = math.ceil((1 - tokens) / rate * 1000)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', now)
redis.call('PEXPIRE', KEYS[1], idle)
return {allowed, wait, math.floor(tokens)}
`)

// CheckUserRateLimit takes a token from the API bucket of a user. Plans with
// a non-positive rate are unlimited.
func (c *Cache) CheckUserRateLimit(ctx context.Context, userID string, ratePerMinute, burst int) (*RateLimitResult, error) {
	if ratePerMinute <= 0 {
		return unlimited(burst), nil
	}
	return c.take(ctx, userRateLimitKey(userID), bucket{
		rate:  float64(ratePerMinute) / 60,
		burst: burst,
		idle:  userBucketIdle,
	}), nil
}

// CheckIPRateLimit takes a token from the bucket of a client address. Used
// on login, registration and password reset.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	if ratePerSecond <= 0 {
		return unlimited(burst), nil
	}
	return c.take(ctx, ipRateLimitKey(ip), bucket{
		rate:  float64(ratePerSecond),
		burst: burst,
		idle:  ipBucketIdle,
	}), nil
}

// take runs the bucket script. A Redis failure allows the request: losing
// the limiter must not take the API down with it.
func (c *Cache) take(ctx context.Context, key string, b bucket) *RateLimitResult {
	now := time.Now()
	res, err := takeTokenScript.Run(ctx, c.client, []string{key},
		b.rate, b.burst, now.UnixMilli(), b.idle.Milliseconds(),
	).Int64Slice()
	if err != nil || len(res) != 3 {
		return unlimited(b.burst)
	}

	return &RateLimitResult{
		Allowed:    res[0] == 1,
		Remaining:  res[2],
		ResetAt:    now.Add(time.Duration(float64(time.Second) / b.rate)),
		RetryAfter: time.Duration(res[1]) * time.Millisecond,
	}
}

func unlimited(burst int) *RateLimitResult {
	return &RateLimitResult{
		Allowed:   true,
		Remaining: int64(burst),
		ResetAt:   time.Now().Add(time.Minute),
	}
}

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills the bucket in whole intervals, then takes one token.
// Returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
  tokens = capacity
  last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
  local intervals = math.floor(math.max(0, now_ms - last_refill) / interval_ms)
  if intervals > 0 then
    tokens = math.min(capacity, tokens + intervals * refill_tokens)
    last_refill = last_refill + intervals * interval_ms
  end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)
return {allowed, tokens, retry_after_ms}
`)

// RateLimitConfig describes a token bucket.
type RateLimitConfig struct {
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// TokenBucket is a Redis-backed rate limiter shared by all API instances.
type TokenBucket struct {
	rdb redis.Scripter
	cfg RateLimitConfig
	now func() time.Time
}

// NewTokenBucket returns a limiter using the given bucket parameters.
func NewTokenBucket(rdb redis.Scripter, cfg RateLimitConfig) *TokenBucket {
	return &TokenBucket{rdb: rdb, cfg: cfg, now: time.Now}
}

// Allow takes one token from the bucket named key.
func (b *TokenBucket) Allow(ctx context.Context, key string) (Decision, error) {
	ttl := b.cfg.RefillInterval * time.Duration(b.cfg.Capacity+1)
	if ttl < time.Minute {
		ttl = time.Minute
	}
	vals, err := tokenBucketScript.Run(ctx, b.rdb, []string{"ratelimit:" + key},
		b.now().UnixMilli(),
		b.cfg.Capacity,
		b.cfg.RefillTokens,
		b.cfg.RefillInterval.Milliseconds(),
		int64(ttl/time.Second),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(vals) != 3 {
		return Decision{}, fmt.Errorf("rate limit script: unexpected reply %v", vals)
	}
	return Decision{
		Allowed:    vals[0] == 1,
		Remaining:  vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

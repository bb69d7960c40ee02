package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// takeScript refills the bucket for the elapsed time, then consumes one token.
var takeScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
		last_refill = now
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return {allowed, tokens}
`)

// peekScript reports the refilled token count without consuming
var peekScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
	end
	return tokens
`)

// TokenBucket limits one action per subject (an admin user id)
type TokenBucket struct {
	redis    *redis.Client
	action   string
	capacity int64
	refill   int64 // tokens added per window
	window   time.Duration
}

func NewTokenBucket(redisClient *redis.Client, action string, capacity, refillPerMinute int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		action:   action,
		capacity: capacity,
		refill:   refillPerMinute,
		window:   time.Minute,
	}
}

func (tb *TokenBucket) key(subject string) string {
	return fmt.Sprintf("rate_limit:%s:%s", tb.action, subject)
}

func (tb *TokenBucket) args() []interface{} {
	return []interface{}{tb.capacity, tb.refill, int64(tb.window.Seconds()), time.Now().Unix()}
}

// Capacity is the burst size, reported in X-RateLimit-Limit
func (tb *TokenBucket) Capacity() int64 {
	return tb.capacity
}

// Window is the refill period, reported in X-RateLimit-Reset
func (tb *TokenBucket) Window() time.Duration {
	return tb.window
}

// Allow consumes a token and returns whether the call may proceed together
// with the tokens left.
func (tb *TokenBucket) Allow(ctx context.Context, subject string) (bool, int64, error) {
	result, err := takeScript.Run(ctx, tb.redis, []string{tb.key(subject)}, tb.args()...).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected result type from rate limit script")
	}
	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)

	return allowed == 1, remaining, nil
}

func (tb *TokenBucket) GetRemaining(ctx context.Context, subject string) (int64, error) {
	result, err := peekScript.Run(ctx, tb.redis, []string{tb.key(subject)}, tb.args()...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get remaining tokens: %w", err)
	}

	remaining, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected result type from remaining tokens script")
	}

	return remaining, nil
}

// Reset clears the bucket of a subject
func (tb *TokenBucket) Reset(ctx context.Context, subject string) error {
	return tb.redis.Del(ctx, tb.key(subject)).Err()
}

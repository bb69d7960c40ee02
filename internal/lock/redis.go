// Package lock provides a Redis-backed per-session lock so that several
// service replicas linearize mutations of the same upload session.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPattern = "upload:lock:%s" // upload:lock:sessionID

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

type RedisLocker struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisLocker creates a locker whose locks expire after ttl even if the
// holder dies. ttl must exceed the longest host call.
func NewRedisLocker(redisClient *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{redis: redisClient, ttl: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	redisKey := fmt.Sprintf(keyPattern, key)
	token := uuid.New().String()

	acquired, err := l.redis.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("lock %s: %w", key, err)
	}
	if !acquired {
		return nil, false, nil
	}

	unlock := func() {
		// the request context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.redis, []string{redisKey}, token).Err(); err != nil && err != redis.Nil {
			slog.Warn("Failed to release session lock", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return unlock, true, nil
}

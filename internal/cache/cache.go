package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/course-admin-service/internal/storage"
	"github.com/princekumarofficial/course-admin-service/internal/types"
)

// CacheService wraps storage with a Redis read-through cache for the
// dashboard counters
type CacheService struct {
	storage storage.Storage
	redis   *redis.Client
	ttl     time.Duration
}

var _ storage.Storage = (*CacheService)(nil)

// Cache key patterns
const (
	CounterKey     = "stats:count:%s" // stats:count:predicate
	CounterPattern = "stats:count:*"
)

// CounterCacheDuration bounds how stale a dashboard number may get when
// rows change outside this service
const CounterCacheDuration = 2 * time.Minute

// NewCacheService creates a new cache service
func NewCacheService(storage storage.Storage, redisClient *redis.Client) *CacheService {
	return &CacheService{
		storage: storage,
		redis:   redisClient,
		ttl:     CounterCacheDuration,
	}
}

// Count returns the cached counter or fetches it from the database
func (c *CacheService) Count(ctx context.Context, predicate storage.Predicate) (int64, error) {
	key := fmt.Sprintf(CounterKey, predicate)

	// Try cache first
	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		if count, err := strconv.ParseInt(cached, 10, 64); err == nil {
			return count, nil
		}
	}

	// Cache miss - fetch from database
	count, err := c.storage.Count(ctx, predicate)
	if err != nil {
		return 0, err
	}

	if err := c.redis.Set(ctx, key, count, c.ttl).Err(); err != nil {
		slog.Warn("failed to cache counter", slog.String("predicate", string(predicate)), slog.String("error", err.Error()))
	}

	return count, nil
}

// InvalidateCounters drops the given counters
func (c *CacheService) InvalidateCounters(ctx context.Context, predicates ...storage.Predicate) {
	if len(predicates) == 0 {
		return
	}

	keys := make([]string, len(predicates))
	for i, p := range predicates {
		keys[i] = fmt.Sprintf(CounterKey, p)
	}

	c.redis.Del(ctx, keys...)
}

// SaveSession writes through and invalidates the upload counters
func (c *CacheService) SaveSession(ctx context.Context, session types.UploadSession) error {
	if err := c.storage.SaveSession(ctx, session); err != nil {
		return err
	}

	c.InvalidateCounters(ctx, storage.CountActiveUploads, storage.CountCompletedUploads)
	return nil
}

// SaveLessonRecord writes through and invalidates the lesson counters
func (c *CacheService) SaveLessonRecord(ctx context.Context, lesson types.LessonRecord) error {
	if err := c.storage.SaveLessonRecord(ctx, lesson); err != nil {
		return err
	}

	c.InvalidateCounters(ctx, storage.CountCourses, storage.CountVideos)
	return nil
}

// Methods to pass through to storage
func (c *CacheService) LoadSession(ctx context.Context, sessionID string) (types.UploadSession, error) {
	return c.storage.LoadSession(ctx, sessionID)
}

func (c *CacheService) FindSessionByVideoID(ctx context.Context, videoID string) (types.UploadSession, error) {
	return c.storage.FindSessionByVideoID(ctx, videoID)
}

func (c *CacheService) ListStaleSessions(ctx context.Context, before time.Time) ([]types.UploadSession, error) {
	return c.storage.ListStaleSessions(ctx, before)
}

func (c *CacheService) ListLessons(ctx context.Context, courseID string) ([]types.LessonRecord, error) {
	return c.storage.ListLessons(ctx, courseID)
}

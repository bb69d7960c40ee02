package cache

import (
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/course-admin-service/internal/utils/response"
)

// CacheStats represents cache statistics
type CacheStats struct {
	RedisConnected bool     `json:"redis_connected"`
	CacheKeys      []string `json:"cache_keys_sample"`
	CachedCounters int      `json:"cached_counters"`
	KeyCount       int      `json:"total_keys"`
}

// key families that may be cleared through the admin endpoint
var clearPatterns = map[string]string{
	"stats":      CounterPattern,
	"ratelimit":  "rate_limit:*",
	"all_caches": CounterPattern,
}

// GetCacheStats godoc
// @Summary      Cache statistics
// @Tags         cache
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /admin/cache/stats [get]
func GetCacheStats(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stats := CacheStats{RedisConnected: true}

		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			stats.RedisConnected = false
			response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
			return
		}

		keys := redisClient.Keys(ctx, CounterPattern)
		if keys.Err() == nil {
			stats.CachedCounters = len(keys.Val())
			stats.CacheKeys = keys.Val()
			if len(stats.CacheKeys) > 10 {
				stats.CacheKeys = stats.CacheKeys[:10]
			}
		}

		dbSize := redisClient.DBSize(ctx)
		if dbSize.Err() == nil {
			stats.KeyCount = int(dbSize.Val())
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
	}
}

// ClearCache godoc
// @Summary      Clear cached entries
// @Description  type is one of stats, ratelimit or all_caches (default stats). Session locks are never cleared.
// @Tags         cache
// @Produce      json
// @Security     BearerAuth
// @Param        type  query     string  false  "key family"
// @Success      200   {object}  response.Response
// @Router       /admin/cache [delete]
func ClearCache(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cacheType := r.URL.Query().Get("type")
		if cacheType == "" {
			cacheType = "stats"
		}

		pattern, ok := clearPatterns[cacheType]
		if !ok {
			response.WriteJSON(w, http.StatusBadRequest, response.Response{
				Status: response.StatusError,
				Error:  "unknown cache type " + cacheType,
			})
			return
		}

		patterns := []string{pattern}
		if cacheType == "all_caches" {
			patterns = append(patterns, clearPatterns["ratelimit"])
		}

		var matched []string
		for _, p := range patterns {
			keys := redisClient.Keys(ctx, p)
			if keys.Err() != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(keys.Err()))
				return
			}
			matched = append(matched, keys.Val()...)
		}

		if len(matched) == 0 {
			result := map[string]interface{}{
				"type":         cacheType,
				"deleted_keys": 0,
			}
			response.WriteJSON(w, http.StatusOK, response.RequestOK("No cache keys to clear", result))
			return
		}

		deleted := redisClient.Del(ctx, matched...)
		if deleted.Err() != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(deleted.Err()))
			return
		}

		result := map[string]interface{}{
			"type":         cacheType,
			"deleted_keys": deleted.Val(),
			"keys_sample":  matched[:min(len(matched), 5)],
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache cleared successfully", result))
	}
}

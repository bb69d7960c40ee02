// Package app builds the components shared by the admin API and the session
// reaper from configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/course-admin-service/internal/config"
	"github.com/princekumarofficial/course-admin-service/internal/lock"
	"github.com/princekumarofficial/course-admin-service/internal/storage"
	"github.com/princekumarofficial/course-admin-service/internal/storage/memory"
	"github.com/princekumarofficial/course-admin-service/internal/storage/postgres"
	"github.com/princekumarofficial/course-admin-service/internal/types"
	"github.com/princekumarofficial/course-admin-service/internal/upload"
	"github.com/princekumarofficial/course-admin-service/internal/videohost"
	"github.com/princekumarofficial/course-admin-service/internal/videohost/objectstore"
	"github.com/princekumarofficial/course-admin-service/internal/videohost/vimeo"
)

// NewLogger returns a JSON logger in production and a text logger otherwise
func NewLogger(env string, w io.Writer) *slog.Logger {
	if env == "production" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// SetupLogger installs the environment's logger as the slog default
func SetupLogger(env string) *slog.Logger {
	logger := NewLogger(env, os.Stdout)
	slog.SetDefault(logger)
	return logger
}

// NewStorage opens the configured backend. The returned func releases it.
func NewStorage(cfg *config.Config) (storage.Storage, func(), error) {
	switch cfg.Storage.Driver {
	case "postgres":
		pg, err := postgres.NewPostgres(cfg)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil
	case "memory":
		slog.Warn("Using in-memory storage, data is lost on restart")
		return memory.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func NewRedis(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	slog.Info("Connected to Redis", slog.String("address", cfg.Address))
	return redisClient, nil
}

// NewHost builds the configured video host adapter
func NewHost(ctx context.Context, cfg *config.Config) (videohost.Host, error) {
	switch cfg.VideoHost.Provider {
	case "vimeo":
		if cfg.Vimeo.AccessToken == "" {
			return nil, fmt.Errorf("vimeo access token is not configured")
		}
		return vimeo.NewClient(cfg.Vimeo, &http.Client{}), nil
	case "objectstore":
		return objectstore.NewHost(ctx, cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown video host provider %q", cfg.VideoHost.Provider)
	}
}

// NewCoordinator wires the coordinator with the configured lock backend.
// redisClient may be nil when distributed locks are disabled.
func NewCoordinator(cfg *config.Config, host videohost.Host, store storage.SessionStore, redisClient *redis.Client,
	logger *slog.Logger, publisher upload.Publisher) (*upload.Coordinator, error) {
	if err := cfg.Upload.Validate(); err != nil {
		return nil, err
	}

	opts := []upload.Option{
		upload.WithLogger(logger),
		upload.WithRemoteTimeout(cfg.Upload.RemoteTimeout),
		upload.WithDefaultPrivacy(types.Privacy(cfg.Upload.DefaultPrivacy)),
	}

	if cfg.Upload.DistributedLocks {
		if redisClient == nil {
			return nil, fmt.Errorf("distributed locks need a Redis connection")
		}
		opts = append(opts, upload.WithLocker(lock.NewRedisLocker(redisClient, cfg.Upload.LockTTL)))
	}

	if publisher != nil {
		opts = append(opts, upload.WithPublisher(publisher))
	}

	return upload.NewCoordinator(host, store, opts...), nil
}

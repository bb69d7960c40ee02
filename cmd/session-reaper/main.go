package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/course-admin-service/internal/app"
	"github.com/princekumarofficial/course-admin-service/internal/config"
)

// Expirer cancels upload sessions that went quiet
type Expirer interface {
	ExpireStale(ctx context.Context, idleFor time.Duration) (int, error)
}

type SessionReaper struct {
	expirer   Expirer
	interval  time.Duration
	idleAfter time.Duration
	logger    *slog.Logger
}

func NewSessionReaper(expirer Expirer, interval, idleAfter time.Duration, logger *slog.Logger) *SessionReaper {
	return &SessionReaper{
		expirer:   expirer,
		interval:  interval,
		idleAfter: idleAfter,
		logger:    logger,
	}
}

func (sr *SessionReaper) Start(ctx context.Context) {
	ticker := time.NewTicker(sr.interval)
	defer ticker.Stop()

	sr.logger.Info("Session reaper started",
		"interval", sr.interval.String(),
		"idle_after", sr.idleAfter.String())

	// Run once immediately on startup
	sr.reap(ctx)

	for {
		select {
		case <-ctx.Done():
			sr.logger.Info("Session reaper shutting down")
			return
		case <-ticker.C:
			sr.reap(ctx)
		}
	}
}

func (sr *SessionReaper) reap(ctx context.Context) {
	startTime := time.Now()

	count, err := sr.expirer.ExpireStale(ctx, sr.idleAfter)
	if err != nil {
		sr.logger.Error("Failed to expire stale upload sessions",
			"error", err.Error(),
			"sessions_cancelled", count,
			"duration_ms", time.Since(startTime).Milliseconds())
		return
	}

	duration := time.Since(startTime)

	sr.logger.Info("Completed stale session cleanup",
		"sessions_cancelled", count,
		"duration_ms", duration.Milliseconds(),
		"duration", duration.String())
}

func main() {
	// Load config
	cfg := config.MustLoad()
	logger := app.SetupLogger(cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := app.NewStorage(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer closeStore()

	host, err := app.NewHost(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize video host:", err)
	}

	var redisClient *redis.Client
	if cfg.Upload.DistributedLocks {
		// share session locks with the API replicas
		redisClient, err = app.NewRedis(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to initialize Redis:", err)
		}
		defer redisClient.Close()
	}

	coordinator, err := app.NewCoordinator(cfg, host, store, redisClient, logger, nil)
	if err != nil {
		log.Fatal("Failed to initialize upload coordinator:", err)
	}

	reaper := NewSessionReaper(coordinator, cfg.Upload.ReapInterval, cfg.Upload.StaleAfter, logger)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancel()
	}()

	reaper.Start(ctx)

	slog.Info("Session reaper stopped")
}

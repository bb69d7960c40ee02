package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/princekumarofficial/course-admin-service/docs"
	"github.com/princekumarofficial/course-admin-service/internal/app"
	"github.com/princekumarofficial/course-admin-service/internal/auth"
	"github.com/princekumarofficial/course-admin-service/internal/cache"
	"github.com/princekumarofficial/course-admin-service/internal/config"
	"github.com/princekumarofficial/course-admin-service/internal/events"
	"github.com/princekumarofficial/course-admin-service/internal/http/handlers/lessons"
	"github.com/princekumarofficial/course-admin-service/internal/http/handlers/stats"
	"github.com/princekumarofficial/course-admin-service/internal/http/handlers/uploads"
	wsHandler "github.com/princekumarofficial/course-admin-service/internal/http/handlers/websocket"
	"github.com/princekumarofficial/course-admin-service/internal/http/middleware"
	lessonService "github.com/princekumarofficial/course-admin-service/internal/lessons"
	"github.com/princekumarofficial/course-admin-service/internal/websocket"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Course Admin API
// @version 1.0
// @description Upload sessions, lessons and dashboard stats for course administrators.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config
	cfg := config.MustLoad()
	logger := app.SetupLogger(cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// database setup
	store, closeStore, err := app.NewStorage(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer closeStore()

	redisClient, err := app.NewRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to initialize Redis:", err)
	}
	defer redisClient.Close()

	host, err := app.NewHost(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize video host:", err)
	}
	slog.Info("Video host ready", slog.String("provider", cfg.VideoHost.Provider))

	// counters are cached, writes go through the cache to invalidate them
	cached := cache.NewCacheService(store, redisClient)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	coordinator, err := app.NewCoordinator(cfg, host, cached, redisClient, logger, events.NewEventPublisher(hub))
	if err != nil {
		log.Fatal("Failed to initialize upload coordinator:", err)
	}
	lessonSvc := lessonService.NewService(cached, logger)

	resolver := auth.NewJWTResolver(cfg.JWTSecret)
	admin := middleware.AdminOnly(resolver)
	rateLimits := middleware.NewRateLimitConfig(redisClient, cfg.RateLimit)

	// setup router
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	router.Handle("POST /admin/vimeo/create-upload", admin(rateLimits.RateLimitedHandler(middleware.ActionUploads, uploads.CreateUpload(coordinator))))
	router.Handle("GET /admin/uploads/{id}", admin(uploads.GetUpload(coordinator)))
	router.Handle("POST /admin/uploads/{id}/progress", admin(uploads.RecordProgress(coordinator)))
	router.Handle("POST /admin/uploads/{id}/complete", admin(uploads.CompleteUpload(coordinator)))
	router.Handle("POST /admin/uploads/{id}/cancel", admin(uploads.CancelUpload(coordinator)))
	router.Handle("PATCH /admin/vimeo/update-metadata/{video_id}", admin(uploads.UpdateMetadata(coordinator)))

	router.Handle("POST /admin/lessons", admin(lessons.CreateLesson(lessonSvc)))
	router.Handle("GET /admin/courses/{course_id}/lessons", admin(lessons.ListLessons(lessonSvc)))

	router.Handle("GET /admin/stats", admin(stats.Summary(cached)))
	router.Handle("GET /admin/stats/{name}", admin(stats.Count(cached)))

	router.Handle("GET /admin/cache/stats", admin(cache.GetCacheStats(redisClient)))
	router.Handle("DELETE /admin/cache", admin(cache.ClearCache(redisClient)))

	// browsers cannot send headers on upgrade, the handler reads ?token=
	router.HandleFunc("GET /admin/ws", wsHandler.WebSocketHandler(hub, resolver))

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: router,
	}

	slog.Info("server started", slog.String("address", cfg.HTTPServer.Address))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	// closes websocket clients
	cancel()

	err = server.Shutdown(shutdownCtx)
	if err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}

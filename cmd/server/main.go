package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SR0725/short-link-tracker-sub000/internal/config"
	"github.com/SR0725/short-link-tracker-sub000/internal/handlers"
	"github.com/SR0725/short-link-tracker-sub000/internal/repository"
	"github.com/SR0725/short-link-tracker-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Setup Logger
	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 3. Initialize Database
	db, err := repository.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// 4. Run Migrations
	if err := repository.Migrate(cfg, db, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	store := repository.NewStore(db)

	// 5. Initialize Redis (optional)
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = repository.InitRedis(cfg.RedisURL, cfg.RedisPassword, 0)
		if err != nil {
			logger.Warn("Failed to connect to Redis, falling back to in-memory rate limiting", "error", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	// Background Context for workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	// 6. Initialize Services
	geoIPService := services.NewGeoIPService(cfg, logger, services.NewGeoProbe(cfg.GeoIPProbeIP, logger))
	recorder := services.NewClickRecorder(store, geoIPService)
	statsService := services.NewStatsService(recorder, logger, cfg.RecordTimeout)
	resolverService := services.NewResolverService(store, statsService, logger, cfg.EnforceLinkLimits)
	analyticsService := services.NewAnalyticsService(store)
	auditService := services.NewAuditService(db, logger)
	shortenerService := services.NewShortenerService(store, cfg.SlugLength)
	qrService := services.NewQRService()

	var limiter services.Limiter
	switch {
	case cfg.RateLimitRPS <= 0:
		logger.Info("Rate limiting disabled")
	case rdb != nil:
		limiter = services.NewRedisRateLimiter(rdb, int(cfg.RateLimitRPS*60), time.Minute, logger)
	default:
		ipLimiter := services.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, logger)
		go ipLimiter.StartCleanup(workerCtx, 10*time.Minute, 30*time.Minute)
		limiter = ipLimiter
	}

	// 7. Initialize Handler
	h := handlers.NewHandler(cfg, logger, store, rdb, shortenerService, resolverService,
		analyticsService, auditService, qrService, limiter)

	// 8. Setup Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := h.SetupRouter()

	// 9. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start Background Workers
	go auditService.Start(workerCtx)
	go statsService.Start(workerCtx)
	go func() {
		geoIPService.Init()
		geoIPService.StartUpdater(workerCtx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// In-flight click recordings finish before the workers and the store go away.
	statsService.Wait()
	workerCancel()

	if err := geoIPService.Close(); err != nil {
		logger.Warn("Failed to close GeoIP database", "error", err)
	}

	logger.Info("Server exiting")
	return nil
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/config"
	"github.com/salesvisit/visit-service/internal/db"
	"github.com/salesvisit/visit-service/internal/db/repository"
	"github.com/salesvisit/visit-service/internal/middleware"
	"github.com/salesvisit/visit-service/internal/policy"
	"github.com/salesvisit/visit-service/internal/router"
	"github.com/salesvisit/visit-service/internal/service"
	"github.com/salesvisit/visit-service/internal/websockets"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	loc, err := cfg.Business.Location()
	if err != nil {
		logger.Fatal("Invalid business timezone", zap.Error(err))
	}

	// Initialize database
	database, err := db.NewPostgres(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Run database migrations
	if err := database.Migrate(cfg.Database); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	store := service.NewStore(repository.NewRepositories(database))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize WebSocket hub
	hub := websockets.NewHub()
	go hub.Run(ctx)

	notifier := service.NewNotifier(hub, store.Users(), logger)
	authService := service.NewAuthService(store, service.JWTConfig{
		Secret:    cfg.JWT.Secret,
		ExpiresIn: cfg.JWT.ExpiresIn,
	}, logger)

	if cfg.Bootstrap.Enabled() {
		if err := authService.EnsureAdmin(ctx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminEmail); err != nil {
			logger.Fatal("Failed to seed admin account", zap.Error(err))
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = initRedis(cfg.Redis)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
	}

	limiterStore, err := middleware.NewLimiterStore(rdb)
	if err != nil {
		logger.Fatal("Failed to create rate limiter store", zap.Error(err))
	}

	rs := api.NewResponder(logger, cfg.Server.IsDevelopment())
	loginLimit, err := middleware.RateLimit(limiterStore, cfg.RateLimit.Login, rs)
	if err != nil {
		logger.Fatal("Invalid login rate limit", zap.Error(err))
	}

	edit := policy.NewEditability(loc, cfg.Business.EditWindow)
	services := router.Services{
		Auth:         authService,
		Users:        service.NewUserService(store, authService, logger),
		Customers:    service.NewCustomerService(store, notifier, logger),
		Import:       service.NewImportService(store, notifier, cfg.Upload.Dir, logger),
		VisitPlans:   service.NewVisitPlanService(store, edit, notifier, logger),
		VisitReports: service.NewVisitReportService(store, notifier, logger),
		Dashboard:    service.NewDashboardService(store, logger),
	}

	// Initialize router
	r := router.New(services, router.Options{
		Responder:  rs,
		Logger:     logger,
		Hub:        hub,
		Upgrader:   websockets.NewUpgrader(cfg.Server.AllowedOrigins),
		Health:     database,
		LoginLimit: loginLimit,
		Location:   loc,
		MaxUpload:  cfg.Upload.MaxFileSize,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting",
			zap.String("address", cfg.Server.Address),
			zap.String("mode", cfg.Server.Mode),
			zap.String("timezone", loc.String()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("Server exited properly")
}

func initLogger(cfg config.Log) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initRedis(cfg config.Redis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sebench/evidence-engine/pkg/auth"
	"github.com/sebench/evidence-engine/pkg/authz"
	"github.com/sebench/evidence-engine/pkg/config"
	"github.com/sebench/evidence-engine/pkg/database"
	"github.com/sebench/evidence-engine/pkg/handlers"
	"github.com/sebench/evidence-engine/pkg/logging"
	"github.com/sebench/evidence-engine/pkg/middleware"
	"github.com/sebench/evidence-engine/pkg/repositories"
	"github.com/sebench/evidence-engine/pkg/retry"
	"github.com/sebench/evidence-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", cfg.Database.Host),
		zap.Bool("redis_enabled", cfg.Redis.Enabled()))

	ctx := context.Background()

	// Database connectivity is the only thing retried at startup; once the
	// pool is up, business errors surface immediately.
	db, err := retry.DoWithResult(ctx, nil, func() (*database.DB, error) {
		return database.NewConnection(ctx, &database.Config{
			URL:            cfg.Database.ConnectionString(),
			MaxConnections: cfg.Database.MaxConnections,
		})
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations using database/sql (required by golang-migrate)
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)
	authorizer := authz.NewAuthorizer(logger)

	articleRepo := repositories.NewArticleRepository(db)
	savedSearchRepo := repositories.NewSavedSearchRepository(db)

	searchCache := services.NewSearchCache(redisClient, cfg.Redis.CacheTTL, logger)
	articleService := services.NewArticleService(articleRepo, searchCache, logger)
	searchService := services.NewSearchService(articleRepo, searchCache, logger)
	savedSearchService := services.NewSavedSearchService(savedSearchRepo, logger)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	articlesHandler := handlers.NewArticlesHandler(articleService, searchService, logger)
	articlesHandler.RegisterRoutes(mux, authMiddleware, authorizer)

	savedSearchesHandler := handlers.NewSavedSearchesHandler(savedSearchService, logger)
	savedSearchesHandler.RegisterRoutes(mux, authMiddleware, authorizer)

	var limiter *rate.Limiter
	if cfg.RateLimit.Enabled {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	}

	handler := middleware.RequestLogger(logger)(
		middleware.RateLimit(limiter, logger)(mux))

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting evidence-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}
	logger.Info("Server stopped")
}

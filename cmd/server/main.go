package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"adminconsole/docs" // swagger docs
	"adminconsole/internal/auth"
	"adminconsole/internal/cache"
	"adminconsole/internal/config"
	"adminconsole/internal/db"
	"adminconsole/internal/handler"
	"adminconsole/internal/logging"
	"adminconsole/internal/repository"
	"adminconsole/internal/router"
	"adminconsole/internal/service"
	"adminconsole/internal/web"
)

const shutdownTimeout = 10 * time.Second

// @title Admin Console API
// @version 1.0
// @description Session-authenticated account administration with an audit trail.
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name session_id
func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.Options{MaxOpenConns: cfg.DBMaxOpenConns, Debug: cfg.LogDev})
	if err != nil {
		logger.Fatal("database init", zap.Error(err))
	}
	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cacheClient.Ping(ctx); err != nil {
		if cfg.SessionStore == config.SessionStoreRedis {
			logger.Fatal("redis init", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		logger.Warn("redis unavailable, running without user cache", zap.Error(err))
		_ = cacheClient.Close()
		cacheClient = nil
	}
	defer func() { _ = cacheClient.Close() }()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	activityRepo := repository.NewActivityLogRepository(gormDB)

	// Initialize auth components
	var sessionStore auth.SessionStore
	switch cfg.SessionStore {
	case config.SessionStoreMemory:
		sessionStore = auth.NewMemoryStore()
	default:
		sessionStore = auth.NewRedisStore(cacheClient)
	}
	sessions := auth.NewManager(sessionStore, auth.NewJWTService(cfg.SessionSecret), auth.WithTTL(cfg.SessionTTL))

	// Initialize services
	creds := service.NewCredentialStore(userRepo, auth.NewBcryptHasher(cfg.BcryptCost))
	activity := service.NewActivityService(activityRepo)
	directory := service.NewDirectoryService(creds, sessions, activity, cacheClient, logger)
	guard := auth.NewGuard(sessions, directory, cfg.TrustSessionRole)

	seeded, err := creds.EnsureAdmin(ctx, "Admin", cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		logger.Fatal("bootstrap admin", zap.Error(err))
	}
	if seeded {
		logger.Warn("bootstrap admin created, change its password", zap.String("email", cfg.AdminEmail))
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		logger.Fatal("templates", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer

	router.Register(e, cfg, guard, router.Handlers{
		Auth:      handler.NewAuthHandler(directory, cfg.CookieSecure, logger),
		Dashboard: handler.NewDashboardHandler(directory, logger),
		Users:     handler.NewUserHandler(directory, logger),
	}, logger)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	addr := ":" + cfg.ServerPort
	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("session_store", cfg.SessionStore),
			zap.String("swagger", "/swagger/index.html"),
		)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

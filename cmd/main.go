package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"passgate/internal/config"
	"passgate/internal/handlers"
	"passgate/internal/logger"
	"passgate/internal/password"
	"passgate/internal/repository"
	"passgate/internal/repository/db"
	"passgate/internal/server"
	"passgate/internal/service"
	"passgate/internal/throttle"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

// @title                      passgate API
// @version                    1.0
// @description                Username/password registration, login and session-gated pages.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger settings live in the config, so use a default one to report this
		logger.Get(logger.InfoLevel, logger.FormatConsole).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	gin.SetMode(cfg.GinMode)

	// open DB
	conn, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	limiter, closeLimiter := newLimiter(cfg, log)
	defer closeLimiter()

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, password.NewHasher(cfg.Auth.BcryptCost), service.TokenConfig{
		Secret: cfg.Auth.TokenSecret,
		TTL:    cfg.Auth.TokenTTL,
	})
	h := handlers.NewHandler(services, limiter, log, handlers.Options{
		SessionName:   cfg.Session.Name,
		SessionSecret: cfg.Session.Secret,
		SessionMaxAge: cfg.Session.MaxAge,
		SecureCookie:  cfg.Session.Secure,
		CORSOrigins:   cfg.CORS.AllowedOrigins,
	})

	// start HTTP server
	srv := server.New(cfg.Port, h.InitRoutes())
	go func() {
		log.Infow("http server listening", "addr", srv.Addr(), "mode", cfg.GinMode)
		if err := srv.Run(); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()

	// graceful shutdown
	waitForShutdown(srv, log)
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	log.Infow("opening sqlite", "path", cfg.DB.Path)
	return db.InitDB(cfg.DB.Path)
}

// newLimiter uses Redis when an address is configured, process memory otherwise.
func newLimiter(cfg *config.Config, log *logger.Logger) (throttle.Limiter, func()) {
	limits := throttle.Config{MaxAttempts: cfg.Limit.MaxAttempts, Window: cfg.Limit.Window}
	if cfg.Redis.Addr == "" {
		log.Infow("login throttle in memory", "max_attempts", limits.MaxAttempts, "window", limits.Window)
		return throttle.NewMemory(limits), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// the limiter fails open, so keep going
		log.Warnw("redis unreachable at startup", "addr", cfg.Redis.Addr, "err", err)
	}
	log.Infow("login throttle in redis", "addr", cfg.Redis.Addr, "max_attempts", limits.MaxAttempts, "window", limits.Window)
	return throttle.NewRedis(rdb, limits), func() {
		if err := rdb.Close(); err != nil {
			log.Errorw("failed to close redis", "err", err)
		}
	}
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}

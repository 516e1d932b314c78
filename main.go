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

	"pizza-service/auth"
	"pizza-service/config"
	"pizza-service/database"
	"pizza-service/logger"
	"pizza-service/middleware"
	"pizza-service/routes"
	"pizza-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatal("Error loading .env file: ", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Configuration error: ", err)
	}

	zapLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer zapLogger.Sync()

	if err := config.ValidateEnv(zapLogger); err != nil {
		zapLogger.Fatal("environment validation failed", zap.Error(err))
	}

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.Migrate(db); err != nil {
		zapLogger.Fatal("failed to run migrations", zap.Error(err))
	}

	if err := database.CreateDefaultAdmin(db, cfg.DefaultAdmin, cfg.Auth.BcryptCost, zapLogger); err != nil {
		zapLogger.Warn("could not create default admin", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var sessions auth.SessionStore
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			zapLogger.Fatal("failed to connect to redis", zap.Error(err))
		}
		sessions = auth.NewRedisSessionStore(redisClient)
		zapLogger.Info("sessions stored in redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		gormSessions := auth.NewGormSessionStore(db)
		go purgeSessions(ctx, gormSessions, zapLogger)
		sessions = gormSessions
		zapLogger.Info("sessions stored in database")
	}

	tokens := auth.NewTokenService(db, sessions, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, zapLogger)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, zapLogger)
	defer limiter.Close()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	utils.UseJSONFieldNames()

	r := gin.New()
	r.Use(middleware.Recovery(zapLogger), middleware.LoggingMiddleware(zapLogger), middleware.MetricsMiddleware())

	routes.SetupRoutes(r, routes.Dependencies{
		DB:          db,
		Tokens:      tokens,
		AuthLimiter: limiter,
		BcryptCost:  cfg.Auth.BcryptCost,
		Origins:     []string{cfg.App.FrontendURL},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("server starting", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("shutting down server")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			zapLogger.Error("error closing redis connection", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		zapLogger.Error("error closing database connection", zap.Error(err))
	} else {
		zapLogger.Info("database connection closed")
	}

	zapLogger.Info("server exited gracefully")
}

// purgeSessions drops expired session rows every hour until ctx ends.
func purgeSessions(ctx context.Context, store *auth.GormSessionStore, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("failed to purge expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}

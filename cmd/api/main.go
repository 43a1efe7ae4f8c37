package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/server"

	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// In-flight requests get 30 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	done <- true
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		// The configured environment may be what failed, so log with the defaults
		logger.NewWithDefaults().Fatal("Invalid configuration", zap.Error(err))
	}

	zlog, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer zlog.Sync()

	zlog.Info("Starting storefront API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Driver),
		zap.String("order_status_policy", cfg.Orders.StatusPolicy),
	)

	ctx := context.Background()

	stores, err := server.OpenStores(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to open store", zap.Error(err))
	}
	zlog.Info("Store health check", zap.Any("health", stores.Health(ctx)))

	redisClient := server.ConnectRedis(ctx, cfg.Redis, zlog)
	stores.WithProductCache(redisClient, cfg.Cache.ProductTTL, zlog)

	srv, err := server.NewServer(cfg, zlog, stores, redisClient)
	if err != nil {
		zlog.Fatal("Failed to create server", zap.Error(err))
	}

	done := make(chan bool, 1)
	go gracefulShutdown(srv, zlog, done)

	zlog.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		zlog.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	zlog.Info("Graceful shutdown complete")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skyscraper-platform/internal/app"
	"skyscraper-platform/internal/cache"
	"skyscraper-platform/internal/handlers"
	"skyscraper-platform/internal/services"
	"skyscraper-platform/pkg/logging"
)

func main() {
	ctx := context.Background()

	rt, err := app.Bootstrap(ctx, "skyscraper-api", "skyscraper_api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	cfg := rt.Config
	logger := rt.Logger

	logger.Info(ctx, "[STARTUP] Starting skyscraper ranking API server", logging.Fields{
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"storage":     rt.Store.Backend(),
		"cache":       cfg.Redis.Enabled(),
	})

	// Response cache
	var responseCache cache.Cache = cache.Noop{}
	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis, rt.Metrics)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn(ctx, "[STARTUP_CACHE] Redis unreachable, serving without cache", logging.Fields{
				"redis_addr": cfg.Redis.Addr(),
				"error":      err.Error(),
			})
		}
		responseCache = redisCache
	}
	defer responseCache.Close()

	rankingService := services.NewRankingService(rt.Repository(), rt.Settings, rt.Table, logger, rt.Metrics)
	rankingHandler := handlers.NewRankingHandler(rankingService, responseCache, logger, rt.Metrics)

	// Setup router
	router := mux.NewRouter()
	router.Use(handlers.RequestID(logger))
	rankingHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}

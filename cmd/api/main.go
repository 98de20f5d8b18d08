// Command api serves the clinic directory JSON API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	httpadapter "github.com/vetbcn/clinic-directory/internal/adapter/http"
	"github.com/vetbcn/clinic-directory/internal/adapter/osrm"
	"github.com/vetbcn/clinic-directory/internal/adapter/postgres"
	redisadapter "github.com/vetbcn/clinic-directory/internal/adapter/redis"
	"github.com/vetbcn/clinic-directory/internal/catalog"
	"github.com/vetbcn/clinic-directory/internal/config"
	"github.com/vetbcn/clinic-directory/internal/domain"
	"github.com/vetbcn/clinic-directory/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	domain.SetLocation(cfg.Location)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	pgStore := postgres.NewStore(db)
	if err := pgStore.CheckSchema(ctx); err != nil {
		logger.Error("schema check failed", "error", err)
		os.Exit(1)
	}

	var store catalog.Store = pgStore
	var cache *redisadapter.Client
	if cfg.RedisEnabled() {
		cache, err = redisadapter.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, serving without cache", "error", err)
		} else {
			store = redisadapter.NewCachedStore(pgStore, cache, logger, metrics)
			logger.Info("redis cache enabled", "addr", cfg.RedisAddr)
		}
	}

	router := osrm.NewClient(cfg.OSRMBaseURL, cfg.OSRMTimeout, cfg.RouteCacheSize, logger, metrics)
	svc := catalog.NewService(store, router, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, pgStore, logger, metrics)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if cache != nil {
		if err := cache.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		logger.Error("postgres close error", "error", err)
	}

	logger.Info("shutdown complete")
}

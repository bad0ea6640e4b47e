// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Helixio series HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Load the token verifier and wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RolldeoDev/Helixio-sub007/internal/api"
	"github.com/RolldeoDev/Helixio-sub007/internal/core/series"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/config"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/constants"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/migration"
	pgstore "github.com/RolldeoDev/Helixio-sub007/internal/platform/postgres"
	redisstore "github.com/RolldeoDev/Helixio-sub007/internal/platform/redis"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String(constants.FieldApp, constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")
	must(log, cfg.ValidateAPI(), "validate configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String(constants.FieldApp, constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("postgres_pool_closing")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("redis_client_closing")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Verifier ─────────────────────────────────────────────────
	// Tokens are issued by the Helixio account service; this server only verifies.
	verifier, err := sec.NewTokenVerifier(cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "load jwt public key")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(log,
		api.DependencyCheck{Name: "postgres", Probe: func(probeCtx context.Context) error {
			return pgstore.Ping(probeCtx, pool)
		}},
		api.DependencyCheck{Name: "redis", Probe: func(probeCtx context.Context) error {
			return redisstore.Ping(probeCtx, rdb)
		}},
	)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	seriesRepository := series.NewPostgresRepository(pool)
	reportStore := series.NewRedisReportStore(rdb)
	seriesService := series.NewService(seriesRepository, reportStore, cfg.DuplicateReportTTL, log)
	seriesHandler := series.NewHandler(seriesService)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Series:    seriesHandler,
	}

	// Cancelled on shutdown so background middleware (rate-limit sweeper) stops.
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, verifier, handlers)

	// ── 10. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("server_shutting_down", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("server_shutdown_failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failed",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

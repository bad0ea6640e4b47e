// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres opens the pgx pool used by the series repository and runs
// multi-statement work (links, creations, merges) in one transaction.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/constants"
)

// Scans link files from a bounded worker pool; merges hold one connection for
// the whole transaction.
const (
	maxConns          = 20
	minConns          = 2
	maxConnLifetime   = time.Hour
	maxConnIdleTime   = 10 * time.Minute
	healthCheckPeriod = time.Minute
	connectTimeout    = 5 * time.Second
	pingTimeout       = 2 * time.Second
)

/*
NewPool parses dsn, applies the pool limits and checks connectivity.

Description: Every new physical connection gets a statement_timeout equal to
the request deadline so an abandoned merge cannot hold its locks forever.
*/
func NewPool(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}

	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout

	statementTimeout := fmt.Sprintf("SET statement_timeout = '%ds'", int(constants.GlobalRequestTimeout.Seconds()))
	poolConfig.AfterConnect = func(ctx context.Context, connection *pgx.Conn) error {
		_, err := connection.Exec(ctx, statementTimeout)
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}

	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres_pool_connected",
		slog.String("database", poolConfig.ConnConfig.Database),
		slog.Int("max_conns", int(poolConfig.MaxConns)),
	)
	return pool, nil
}

// InTx commits when fn returns nil and rolls back on error or panic.
func InTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	transaction, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer transaction.Rollback(ctx)

	if err := fn(transaction); err != nil {
		return err
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// Ping reports whether the pool reaches the server within pingTimeout.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

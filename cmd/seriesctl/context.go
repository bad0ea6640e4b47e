// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/RolldeoDev/Helixio-sub007/internal/core/series"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/config"
	pgstore "github.com/RolldeoDev/Helixio-sub007/internal/platform/postgres"
	redisstore "github.com/RolldeoDev/Helixio-sub007/internal/platform/redis"
)

// commandContext lazily builds the shared dependencies of every subcommand.
type commandContext struct {
	debugFlag *bool
	stderr    io.Writer

	configOnce sync.Once
	config     *config.Config
	configErr  error

	pool  *pgxpool.Pool
	cache *redis.Client
}

func newCommandContext(debugFlag *bool) *commandContext {
	return &commandContext{debugFlag: debugFlag, stderr: os.Stderr}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger writes human-readable logs to stderr so stdout stays parseable.
func (c *commandContext) logger() *slog.Logger {
	level := slog.LevelWarn
	if (c.debugFlag != nil && *c.debugFlag) || (c.config != nil && c.config.Debug) {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
}

// service connects to PostgreSQL and, when REDIS_URL is set, to Redis.
func (c *commandContext) service(context context.Context) (*series.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.logger()

	if c.pool == nil {
		pool, err := pgstore.NewPool(context, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		c.pool = pool
	}

	var reports series.ReportStore
	if cfg.RedisURL != "" {
		if c.cache == nil {
			client, err := redisstore.NewClient(context, cfg.RedisURL, logger)
			if err != nil {
				return nil, fmt.Errorf("connect to redis: %w", err)
			}
			c.cache = client
		}
		reports = series.NewRedisReportStore(c.cache)
	}

	return series.NewService(series.NewPostgresRepository(c.pool), reports, cfg.DuplicateReportTTL, logger), nil
}

func (c *commandContext) close() {
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
	if c.cache != nil {
		_ = c.cache.Close()
		c.cache = nil
	}
}

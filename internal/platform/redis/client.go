// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis connects to the Redis instance that holds the latest duplicate
report. Nothing in Redis is authoritative: losing it only means the next
review has to wait for a new scan.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// The report store issues a handful of GET/SET calls per scan, so the pool is tiny.
const (
	poolSize     = 4
	minIdleConns = 1
	dialTimeout  = 3 * time.Second
	ioTimeout    = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

/*
NewClient parses redisURL (redis:// or rediss://) and returns a client that
has answered a PING.

Parameters:
  - context: stdctx.Context (Bounds the initial ping)
  - redisURL: string
  - logger: *slog.Logger

Returns:
  - *redis.Client: Connected client, owned by the caller
  - error: Invalid URL or unreachable server
*/
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	options.PoolSize = poolSize
	options.MinIdleConns = minIdleConns
	options.DialTimeout = dialTimeout
	options.ReadTimeout = ioTimeout
	options.WriteTimeout = ioTimeout

	client := redis.NewClient(options)
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
	)
	return client, nil
}

// Ping reports whether client answers within pingTimeout. Used by readiness.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingContext, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingContext).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

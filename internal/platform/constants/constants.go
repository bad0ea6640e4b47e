// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package constants holds the fixed values shared by cmd/api, seriesctl and the
// platform packages: server timing, rate limits, the token issuer, header
// names, schema names and Redis keys. Matching thresholds are domain values
// and live in the series package.
package constants

import "time"

// # Metadata

const (
	AppName    = "helixio-series"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the expected 'iss' claim of admin JWTs.
	AuthIssuer = "helixio.app"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaCore    = "core"
	SchemaLibrary = "library"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	// RedisKeyDuplicateReport holds the latest finished duplicate report.
	RedisKeyDuplicateReport = "series:duplicates:latest"
)

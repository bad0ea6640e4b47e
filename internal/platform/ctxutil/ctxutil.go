// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil stores per-request values in a [context.Context]: the
// correlation ID, the request-scoped logger and the verified admin claims.
//
// Keys are of an unexported type so no other package can collide with them.
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/sec"
)

type key int

const (
	keyRequestID key = iota
	keyLogger
	keyAuthUser
)

// # Request Tracing

// WithRequestID attaches the X-Request-ID correlation value.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// GetRequestID returns the correlation value, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger attaches a request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, keyLogger, logger)
}

// GetLogger returns the request-scoped logger, falling back to [slog.Default].
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(keyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// # Identity & Access

// WithAuthUser attaches verified token claims.
func WithAuthUser(ctx context.Context, user *sec.AuthClaims) context.Context {
	return context.WithValue(ctx, keyAuthUser, user)
}

// GetAuthUser returns the verified claims, or nil for anonymous requests.
func GetAuthUser(ctx context.Context) *sec.AuthClaims {
	claims, _ := ctx.Value(keyAuthUser).(*sec.AuthClaims)
	return claims
}

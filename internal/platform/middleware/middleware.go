// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package middleware provides the HTTP chain in front of the series handlers.

Order of the chain in [api.NewServer]:

  - RequestID: correlation ID in context and response header.
  - StructuredLogger: request-scoped slog logger and one access log line.
  - RateLimit: token bucket per client IP.
  - PanicRecovery: converts a panic into INTERNAL_ERROR.
  - Authenticate / RequireRole: optional bearer token, admin-only routes.
  - CORS: browser origins allowed per environment.
*/
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/constants"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/ctxutil"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/respond"
	"github.com/RolldeoDev/Helixio-sub007/pkg/uuid"
)

// maxRequestIDLength caps client-supplied correlation IDs before they reach logs.
const maxRequestIDLength = 128

// # Request Tracing

// RequestID keeps the caller's X-Request-ID or generates a UUIDv7.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			requestID := request.Header.Get(constants.HeaderXRequestID)
			if requestID == "" || len(requestID) > maxRequestIDLength {
				requestID = uuid.New()
			}

			writer.Header().Set(constants.HeaderXRequestID, requestID)
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithRequestID(request.Context(), requestID)))
		})
	}
}

// # Activity Logging

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

// StructuredLogger attaches a request-scoped logger and logs
// "http_request_finished" at a level derived from the status code.
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			started := time.Now()

			requestLogger := logger.With(
				slog.String("request_id", ctxutil.GetRequestID(request.Context())),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", RealIP(request)),
			)

			ctx := ctxutil.WithLogger(request.Context(), requestLogger)
			recorder := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}
			request = request.WithContext(ctx)

			next.ServeHTTP(recorder, request)

			level := slog.LevelInfo
			switch {
			case recorder.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case recorder.status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			attributes := []any{
				slog.Int("status", recorder.status),
				slog.Int64("latency_ms", time.Since(started).Milliseconds()),
			}

			// Authenticate runs further down the chain; its claims live on the inner request only
			if claims := ctxutil.GetAuthUser(ctx); claims != nil {
				attributes = append(attributes, slog.String("user_id", claims.UserID))
			}

			requestLogger.Log(ctx, level, "http_request_finished", attributes...)
		})
	}
}

// # Rate Limiting

type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter holds one token bucket per client IP.
type rateLimiter struct {
	mutex   sync.Mutex
	clients map[string]*rateLimitClient
}

func (limiter *rateLimiter) allow(ip string, now time.Time) bool {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	client, found := limiter.clients[ip]
	if !found {
		client = &rateLimitClient{
			limiter: rate.NewLimiter(rate.Limit(constants.DefaultRateLimitRPS), constants.DefaultRateLimitBurst),
		}
		limiter.clients[ip] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}

func (limiter *rateLimiter) evictIdle(now time.Time) {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	for ip, client := range limiter.clients {
		if now.Sub(client.lastSeen) > constants.RateLimitClientTTL {
			delete(limiter.clients, ip)
		}
	}
}

// RateLimit limits requests per client IP with a token bucket. Idle buckets
// are evicted until context is cancelled.
func RateLimit(context context.Context) func(http.Handler) http.Handler {
	limiter := &rateLimiter{clients: make(map[string]*rateLimitClient)}

	go func() {
		ticker := time.NewTicker(constants.RateLimitCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				limiter.evictIdle(now)
			case <-context.Done():
				return
			}
		}
	}()

	retryAfter := int(math.Ceil(1 / constants.DefaultRateLimitRPS))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if !limiter.allow(RealIP(request), time.Now()) {
				respond.Error(writer, request, apperr.RateLimited(retryAfter))
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// # Reliability & Safety

// PanicRecovery logs the panic with its stack and answers INTERNAL_ERROR.
func PanicRecovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}

				stack := make([]byte, 4096)
				stack = stack[:runtime.Stack(stack, false)]

				requestLogger := ctxutil.GetLogger(request.Context())
				if requestLogger == slog.Default() {
					requestLogger = logger
				}
				requestLogger.ErrorContext(request.Context(), "panic_recovered",
					slog.Any("error", recovered),
					slog.String("stack", string(stack)),
				)

				respond.Error(writer, request, apperr.Internal(fmt.Errorf("panic: %v", recovered)))
			}()

			next.ServeHTTP(writer, request)
		})
	}
}

// # Cross-Origin Resource Sharing

// AppConfig is the part of the configuration CORS depends on.
type AppConfig interface {
	IsDevelopment() bool
	AllowsOrigin(origin, appDomain string) bool
}

// CORS allows every origin in development and, otherwise, the application
// domain plus the configured extra origins. Pre-flight requests end here.
func CORS(cfg AppConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			origin := request.Header.Get(constants.HeaderOrigin)
			if origin == "" {
				next.ServeHTTP(writer, request)
				return
			}

			if cfg.IsDevelopment() || cfg.AllowsOrigin(origin, constants.AuthIssuer) {
				header := writer.Header()
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
				header.Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization, "+constants.HeaderXRequestID)
				header.Set("Access-Control-Expose-Headers", constants.HeaderXRequestID)
				header.Set("Access-Control-Max-Age", "300")
				header.Add("Vary", constants.HeaderOrigin)
			}

			if request.Method == http.MethodOptions {
				writer.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Helpers

// RealIP returns the client address, preferring X-Real-IP, then the first
// X-Forwarded-For hop, then the socket address.
func RealIP(request *http.Request) string {
	if ip := request.Header.Get(constants.HeaderXRealIP); ip != "" {
		return ip
	}

	if forwarded := request.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}

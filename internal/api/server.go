// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api assembles the HTTP surface of the series service: the middleware
chain, the probes and the versioned /api/v1 routes.

Only cmd/api constructs a [Server]; domain packages expose a chi router and
never touch [http.Server] themselves.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/RolldeoDev/Helixio-sub007/internal/core/series"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/config"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/constants"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/middleware"
)

// Server owns the router and the listening [http.Server].
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// Handlers are the route sets mounted by [NewServer].
type Handlers struct {
	Liveness  http.HandlerFunc
	Readiness http.HandlerFunc
	Series    *series.Handler
}

/*
NewServer builds the router and the [http.Server] listening on cfg.ServerPort.

Description: context bounds background middleware work (rate-limit eviction);
cancel it after [Server.Shutdown].
*/
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	// Order matters: the request ID must exist before the logger, and the
	// logger before anything that can fail.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// Probes stay outside /api/v1 and never require a token
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/series", h.Series.Routes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server stops; after Shutdown it returns
// [http.ErrServerClosed].
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits up to timeout for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}

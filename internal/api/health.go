// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/constants"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/respond"
)

// DependencyCheck probes one backing service for /ready.
type DependencyCheck struct {
	Name  string
	Probe func(context.Context) error
}

type checkResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type healthHandler struct {
	checks []DependencyCheck
	logger *slog.Logger
}

// NewHealthHandlers returns the liveness (/health) and readiness (/ready)
// handlers. Checks run in the given order on every readiness request.
func NewHealthHandlers(logger *slog.Logger, checks ...DependencyCheck) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{checks: checks, logger: logger}
	return handler.liveness, handler.readiness
}

func (handler *healthHandler) liveness(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, map[string]string{
		constants.FieldStatus:  "ok",
		constants.FieldApp:     constants.AppName,
		constants.FieldVersion: constants.AppVersion,
	})
}

/*
GET /ready.

Response:
  - 200: {status: "ready", checks: [...]}
  - 503: {status: "degraded", checks: [...]}: At least one dependency failed
*/
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	results := make([]checkResult, 0, len(handler.checks))
	status, httpStatus := "ready", http.StatusOK

	for _, check := range handler.checks {
		result := checkResult{Name: check.Name, IsOK: true}

		if err := check.Probe(request.Context()); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			status, httpStatus = "degraded", http.StatusServiceUnavailable

			handler.logger.ErrorContext(request.Context(), "readiness_check_failed",
				slog.String("dependency", check.Name),
				slog.Any("error", err),
			)
		}
		results = append(results, result)
	}

	respond.JSON(writer, httpStatus, respond.SuccessEnvelope{Data: map[string]any{
		constants.FieldStatus: status,
		constants.FieldChecks: results,
	}})
}

// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/RolldeoDev/Helixio-sub007/internal/api"
	"github.com/RolldeoDev/Helixio-sub007/internal/core/series"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/config"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/constants"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/sec"
)

type rejectingVerifier struct{}

func (rejectingVerifier) VerifyToken(string) (*sec.AuthClaims, error) {
	return nil, errors.New("invalid token")
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	context, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	liveness, readiness := api.NewHealthHandlers(logger)

	server := api.NewServer(context, &config.Config{ServerPort: "0", Environment: "development"}, logger, rejectingVerifier{}, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Series:    series.NewHandler(series.NewService(nil, nil, time.Hour, logger)),
	})
	return server.Handler()
}

func TestServer_Probes(t *testing.T) {
	handler := newTestServer(t)

	for _, path := range []string{"/health", "/ready"} {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusOK, recorder.Code, path)
		assert.NotEmpty(t, recorder.Header().Get(constants.HeaderXRequestID), path)
	}
}

func TestServer_AdminRoutesRequireToken(t *testing.T) {
	handler := newTestServer(t)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/series/duplicates/scan", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestServer_Preflight(t *testing.T) {
	handler := newTestServer(t)

	request := httptest.NewRequest(http.MethodOptions, "/api/v1/series", nil)
	request.Header.Set(constants.HeaderOrigin, "http://localhost:5173")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "http://localhost:5173", recorder.Header().Get("Access-Control-Allow-Origin"))
}

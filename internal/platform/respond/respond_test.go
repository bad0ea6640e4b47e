// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/respond"
	"github.com/RolldeoDev/Helixio-sub007/pkg/pagination"
)

func TestError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantDetails int
	}{
		{"not_found", apperr.NotFound("Series"), http.StatusNotFound, apperr.CodeNotFound, 0},
		{"validation_details", apperr.ValidationError("Validation failed",
			apperr.FieldError{Field: "target_id", Message: "This field is required"}), http.StatusBadRequest, apperr.CodeValidation, 1},
		{"plain_error_hidden", errors.New("pq: connection refused"), http.StatusInternalServerError, apperr.CodeInternal, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respond.Error(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/series", nil), tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)

			var body respond.ErrorEnvelope
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Len(t, body.Details, tt.wantDetails)
			assert.NotContains(t, body.Error, "connection refused")
		})
	}
}

func TestPaginated(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.Paginated(recorder, []string{"Saga"}, pagination.NewMeta(2, 1, 3))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":["Saga"],"meta":{"page":2,"limit":1,"total":3,"total_pages":3}}`, recorder.Body.String())
}

func TestCreated(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.Created(recorder, map[string]string{"status": "created"})

	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"))
}

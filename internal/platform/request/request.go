// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package requestutil reads path parameters and JSON bodies for the series handlers.
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/validate"
)

// maxBodyBytes bounds admin payloads; the largest is a merge with many source IDs.
const maxBodyBytes = 1 << 20

/*
DecodeJSON decodes the request body into target.

Returns:
  - error: VALIDATION_ERROR for an empty, oversized or malformed body
*/
func DecodeJSON(request *http.Request, target any) error {
	decoder := json.NewDecoder(io.LimitReader(request.Body, maxBodyBytes))

	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.ValidationError("Request body is required")
		}
		return validate.ErrInvalidJSON
	}
	return nil
}

// ID returns the trimmed path parameter name. Format checks belong to the service.
func ID(request *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(request, name))
}

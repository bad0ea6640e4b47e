// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the error type that crosses the series service boundary.

Storage and domain failures are converted into an [AppError] before they reach
a transport. The HTTP layer renders it as a JSON envelope; seriesctl prints its
message.

Codes:

  - NOT_FOUND, CONFLICT, VALIDATION_ERROR: caller mistakes the admin UI can act on.
  - UNAUTHORIZED, FORBIDDEN, RATE_LIMITED: rejected before any domain logic ran.
  - INTERNAL_ERROR: everything else; the cause is logged and never sent.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Error Codes

const (
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// AppError carries a machine-readable code, the HTTP status it maps to and a
// message that is safe to show to an operator.
//
// Cause is for server-side logs only.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"error"`
	HTTPStatus int          `json:"-"`
	Cause      error        `json:"-"`
	Details    []FieldError `json:"details,omitempty"` // VALIDATION_ERROR only
}

// FieldError is one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap exposes the cause to [errors.Is] and [errors.As].
func (e *AppError) Unwrap() error { return e.Cause }

func newError(code string, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// # Client Errors (4xx)

// NotFound reports a missing resource, e.g. NotFound("Series") is "Series not found".
func NotFound(resource string) *AppError {
	return newError(CodeNotFound, http.StatusNotFound, resource+" not found")
}

// Conflict reports a write that collides with existing state, such as a
// series identity already taken by another Active series.
func Conflict(message string) *AppError {
	return newError(CodeConflict, http.StatusConflict, message)
}

// ValidationError reports rejected input with optional per-field details.
func ValidationError(message string, details ...FieldError) *AppError {
	err := newError(CodeValidation, http.StatusBadRequest, message)
	err.Details = details
	return err
}

// Unauthorized reports a missing or invalid bearer token.
func Unauthorized(message string) *AppError {
	return newError(CodeUnauthorized, http.StatusUnauthorized, message)
}

// Forbidden reports an authenticated caller without the required role.
func Forbidden(message string) *AppError {
	return newError(CodeForbidden, http.StatusForbidden, message)
}

// RateLimited reports a client that exhausted its request budget.
func RateLimited(retryAfterSeconds int) *AppError {
	return newError(CodeRateLimited, http.StatusTooManyRequests,
		fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
}

// # Server Errors (5xx)

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	err := newError(CodeInternal, http.StatusInternalServerError, "An unexpected error occurred")
	err.Cause = cause
	return err
}

// # Helpers

// As extracts the [*AppError] from err's chain, or nil.
func As(err error) *AppError {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError
	}
	return nil
}

// IsNotFound reports whether err carries a NOT_FOUND [*AppError].
func IsNotFound(err error) bool {
	appError := As(err)
	return appError != nil && appError.Code == CodeNotFound
}

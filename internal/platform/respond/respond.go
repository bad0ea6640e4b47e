// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond writes the JSON envelopes of the series API.
//
// # Envelopes
//
//   - Success: {"data": ...}
//   - Paginated: {"data": [...], "meta": {page, limit, total, total_pages}}
//   - Error: {"error": "...", "code": "...", "details": [...]}
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/ctxutil"
	"github.com/RolldeoDev/Helixio-sub007/pkg/pagination"
)

// SuccessEnvelope wraps a single resource.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// PaginatedEnvelope wraps one page of a list.
type PaginatedEnvelope struct {
	Data any             `json:"data"`
	Meta pagination.Meta `json:"meta"`
}

// ErrorEnvelope is the body of every non-2xx response.
type ErrorEnvelope struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// JSON writes payload with statusCode.
func JSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes 200 with data in a [SuccessEnvelope].
func OK(writer http.ResponseWriter, data any) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Data: data})
}

// Created writes 201 with data in a [SuccessEnvelope].
func Created(writer http.ResponseWriter, data any) {
	JSON(writer, http.StatusCreated, SuccessEnvelope{Data: data})
}

// Paginated writes 200 with one page and its metadata.
func Paginated(writer http.ResponseWriter, data any, metadata pagination.Meta) {
	JSON(writer, http.StatusOK, PaginatedEnvelope{Data: data, Meta: metadata})
}

/*
Error renders err as an [ErrorEnvelope].

Description: Errors that are not an [apperr.AppError] become INTERNAL_ERROR so
that storage details never reach the client. Every 5xx is logged with the
request-scoped logger and its cause.
*/
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	appError := apperr.As(err)
	if appError == nil {
		appError = apperr.Internal(err)
	}

	if appError.HTTPStatus >= http.StatusInternalServerError {
		ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Error:   appError.Message,
		Code:    appError.Code,
		Details: appError.Details,
	})
}

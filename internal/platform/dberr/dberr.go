// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
//
// # Classification
//
//   - pgx.ErrNoRows becomes an apperr NOT_FOUND error.
//   - SQLSTATE 23505 (unique_violation) becomes [ErrIdentityConflict], which
//     the series linker consumes to resolve creation races.
//   - Anything else becomes an INTERNAL_ERROR carrying the original cause.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")

	// ErrIdentityConflict reports a write that lost a uniqueness race.
	ErrIdentityConflict = errors.New("dberr: identity conflict")
)

// Wrap inspects a database error and wraps it into a meaningful error.
// It hides internal database details from the client while classifying the error type.
func Wrap(err error, action string) error {
	return WrapResource(err, action, "")
}

// WrapResource is [Wrap] with a named resource for NOT_FOUND messages
// (e.g. "Series not found").
func WrapResource(err error, action, resource string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		if resource == "" {
			return ErrNotFound
		}
		return apperr.NotFound(resource)
	}

	// 2. Unique violations lost a race against another writer
	if IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", action, ErrIdentityConflict)
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

// IsUniqueViolation reports whether err carries SQLSTATE 23505.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

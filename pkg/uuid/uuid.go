// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package uuid generates the time-ordered (v7) identifiers used for series,
// duplicate groups and request IDs. Ordering by ID follows creation order,
// which keeps the primary key index append-only.
package uuid

import "github.com/google/uuid"

// New returns a canonical lowercase UUIDv7 string.
//
// It panics only when the system entropy source fails.
func New() string {
	return uuid.Must(uuid.NewV7()).String()
}

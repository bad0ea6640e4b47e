// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pointer builds pointers to literals, mostly for optional years in
// series metadata and test fixtures.
package pointer

// To returns a pointer to a copy of value.
func To[T any](value T) *T {
	return &value
}

// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination parses page/limit query parameters and builds the "meta"
// block of paginated list responses.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	DefaultPage  = 1
)

// Params is a 1-indexed page request.
type Params struct {
	Page  int
	Limit int
}

// Offset is the number of rows skipped before the requested page.
func (params Params) Offset() int {
	if params.Page <= 1 {
		return 0
	}
	return (params.Page - 1) * params.Limit
}

// Meta describes the returned page.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewMeta derives TotalPages from total and limit. A zero limit yields zero pages.
func NewMeta(page, limit, total int) Meta {
	meta := Meta{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		meta.TotalPages = (total + limit - 1) / limit
	}
	return meta
}

/*
FromRequest reads "page" and "limit" from the query string.

Description: Unparseable or non-positive values fall back to the defaults; a
limit above [MaxLimit] is capped rather than rejected.
*/
func FromRequest(request *http.Request) Params {
	query := request.URL.Query()

	params := Params{
		Page:  positiveInt(query.Get("page"), DefaultPage),
		Limit: positiveInt(query.Get("limit"), DefaultLimit),
	}
	params.Limit = min(params.Limit, MaxLimit)

	return params
}

func positiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

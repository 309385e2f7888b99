// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination carries page/limit windows from list requests to SQL and
// back into the response envelope.
package pagination

import (
	"net/http"

	"github.com/taibuivan/yomira-studio/pkg/query"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	DefaultPage  = 1
)

// Params is a 1-indexed page window.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the SQL OFFSET for the window.
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination block of a list response.
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewMeta derives page counts from the total row count.
func NewMeta(page, limit, total int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// FromRequest reads "page" and "limit". Out-of-range values fall back to
// the defaults rather than failing the request.
func FromRequest(r *http.Request) Params {
	values := r.URL.Query()
	page := query.Int(values, "page", DefaultPage)
	if page < 1 {
		page = DefaultPage
	}

	return Params{
		Page:  page,
		Limit: query.IntBetween(values, "limit", DefaultLimit, 1, MaxLimit),
	}
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/yomira-studio/pkg/pagination"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   pagination.Params
		offset int
	}{
		{"defaults", "/users", pagination.Params{Page: 1, Limit: 20}, 0},
		{"explicit", "/users?page=3&limit=10", pagination.Params{Page: 3, Limit: 10}, 20},
		{"limit over max", "/users?limit=500", pagination.Params{Page: 1, Limit: 20}, 0},
		{"negative page", "/users?page=-2&limit=5", pagination.Params{Page: 1, Limit: 5}, 0},
		{"garbage", "/users?page=x&limit=y", pagination.Params{Page: 1, Limit: 20}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pagination.FromRequest(httptest.NewRequest("GET", tt.target, nil))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.offset, got.Offset())
		})
	}
}

func TestNewMeta(t *testing.T) {
	assert.Equal(t, pagination.Meta{Page: 1, Limit: 20, Total: 45, TotalPages: 3, HasNext: true}, pagination.NewMeta(1, 20, 45))
	assert.Equal(t, pagination.Meta{Page: 3, Limit: 20, Total: 45, TotalPages: 3}, pagination.NewMeta(3, 20, 45))
	assert.Equal(t, pagination.Meta{Page: 1, Limit: 20}, pagination.NewMeta(1, 20, 0))
}

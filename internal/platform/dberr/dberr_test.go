// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/dberr"
)

/*
TestWrap classifies driver errors into application errors.
*/
func TestWrap(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"no_rows", pgx.ErrNoRows, "NOT_FOUND"},
		{"wrapped_no_rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), "NOT_FOUND"},
		{"unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, "CONFLICT"},
		{"malformed_uuid", &pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation}, "NOT_FOUND"},
		{"check", &pgconn.PgError{Code: pgerrcode.CheckViolation}, "UNPROCESSABLE"},
		{"foreign_key", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, "UNPROCESSABLE"},
		{"other", errors.New("connection reset"), "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := dberr.Wrap(tt.err, "test action")
			ae := apperr.As(wrapped)
			if assert.NotNil(t, ae) {
				assert.Equal(t, tt.code, ae.Code)
			}
		})
	}

	assert.NoError(t, dberr.Wrap(nil, "noop"))
	assert.True(t, dberr.IsNotFound(dberr.Wrap(pgx.ErrNoRows, "get")))
}

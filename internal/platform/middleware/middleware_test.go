// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-studio/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-studio/internal/platform/middleware"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
)

var okHandler = http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
	writer.WriteHeader(http.StatusOK)
})

type allowList []string

func (list allowList) OriginAllowed(origin string) bool {
	for _, allowed := range list {
		if allowed == origin {
			return true
		}
	}
	return false
}

type stubChecker map[sec.Permission]bool

func (checker stubChecker) Check(_ context.Context, _ string, _ sec.UserRole, permission sec.Permission) bool {
	return checker[permission]
}

type stubVerifier struct {
	claims *sec.AuthClaims
	err    error
}

func (verifier stubVerifier) VerifyToken(string) (*sec.AuthClaims, error) {
	return verifier.claims, verifier.err
}

/*
TestRateLimiter_Burst rejects the request that exceeds the bucket.
*/
func TestRateLimiter_Burst(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.001, 2)
	handler := limiter.Middleware(okHandler)

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for range 3 {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.RemoteAddr = "10.0.0.1:5000"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, request)
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "1000", last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), `"code":"RATE_LIMITED"`)

	// A different client has its own bucket.
	assert.True(t, limiter.Allow("10.0.0.2"))
}

func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery(slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
	)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"code":"INTERNAL_ERROR"`)
	assert.NotContains(t, recorder.Body.String(), "boom")
}

func TestRequestID_CarriesClientIP(t *testing.T) {
	var gotID, gotIP string
	handler := middleware.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
		gotID = ctxutil.GetRequestID(request.Context())
		gotIP = ctxutil.ClientIP(request.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.NotEmpty(t, gotID)
	assert.Equal(t, gotID, recorder.Header().Get("X-Request-ID"))
	assert.Equal(t, "203.0.113.9", gotIP)
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name      string
		realIP    string
		forwarded string
		remote    string
		want      string
	}{
		{"real ip header", "198.51.100.2", "203.0.113.9", "10.0.0.1:5000", "198.51.100.2"},
		{"first forwarded hop", "", "203.0.113.9, 10.0.0.1", "10.0.0.1:5000", "203.0.113.9"},
		{"garbage headers ignored", "not-an-ip", "<script>", "10.0.0.1:5000", "10.0.0.1"},
		{"ipv6 connection", "", "", "[2001:db8::1]:443", "2001:db8::1"},
		{"mapped ipv4", "::ffff:192.0.2.10", "", "10.0.0.1:5000", "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = tt.remote
			if tt.realIP != "" {
				request.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				request.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, middleware.RealIP(request))
		})
	}
}

func TestStructuredLogger_RecordsAuthenticatedUser(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))
	claims := &sec.AuthClaims{UserID: "u-42", Role: string(sec.RoleTranslator)}

	chain := middleware.StructuredLogger(logger)(
		middleware.Authenticate(stubVerifier{claims: claims})(okHandler),
	)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/assignments", nil)
	request.Header.Set("Authorization", "Bearer abc")
	chain.ServeHTTP(httptest.NewRecorder(), request)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &line))
	assert.Equal(t, "http_request_finished", line["msg"])
	assert.Equal(t, "u-42", line["user_id"])
	assert.EqualValues(t, http.StatusOK, line["status"])
}

/*
TestCORS_AllowList only echoes origins on the allow-list.
*/
func TestCORS_AllowList(t *testing.T) {
	handler := middleware.CORS(allowList{"https://studio.example.org"})(okHandler)

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"allowed", "https://studio.example.org", "https://studio.example.org"},
		{"foreign", "https://evil.example.org", ""},
		{"no_origin", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.origin != "" {
				request.Header.Set("Origin", tt.origin)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.want, recorder.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, http.StatusOK, recorder.Code)
		})
	}

	preflight := httptest.NewRequest(http.MethodOptions, "/", nil)
	preflight.Header.Set("Origin", "https://studio.example.org")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, preflight)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

/*
TestAuthenticate covers anonymous, malformed and verified requests.
*/
func TestAuthenticate(t *testing.T) {
	claims := &sec.AuthClaims{UserID: "u-1", Role: string(sec.RoleEditor)}

	var seen *sec.AuthClaims
	capture := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetAuthUser(request.Context())
		writer.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		header   string
		verifier stubVerifier
		code     int
		user     bool
	}{
		{"anonymous", "", stubVerifier{}, http.StatusOK, false},
		{"bad_format", "Token abc", stubVerifier{}, http.StatusUnauthorized, false},
		{"missing_token", "Bearer ", stubVerifier{claims: claims}, http.StatusUnauthorized, false},
		{"extra_parts", "Bearer abc def", stubVerifier{claims: claims}, http.StatusUnauthorized, false},
		{"rejected", "Bearer abc", stubVerifier{err: errors.New("bad signature")}, http.StatusUnauthorized, false},
		{"expired", "Bearer abc", stubVerifier{err: sec.ErrTokenExpired}, http.StatusUnauthorized, false},
		{"verified", "Bearer abc", stubVerifier{claims: claims}, http.StatusOK, true},
		{"lowercase_scheme", "bearer abc", stubVerifier{claims: claims}, http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()
			middleware.Authenticate(tt.verifier)(capture).ServeHTTP(recorder, request)

			assert.Equal(t, tt.code, recorder.Code)
			assert.Equal(t, tt.user, seen != nil)
		})
	}
}

/*
TestRequirePermission maps the checker decision onto 401/403/200.
*/
func TestRequirePermission(t *testing.T) {
	checker := stubChecker{sec.PermAssignChapters: true}

	tests := []struct {
		name       string
		claims     *sec.AuthClaims
		permission sec.Permission
		code       int
	}{
		{"anonymous", nil, sec.PermAssignChapters, http.StatusUnauthorized},
		{"granted", &sec.AuthClaims{UserID: "u-1", Role: "editor"}, sec.PermAssignChapters, http.StatusOK},
		{"denied", &sec.AuthClaims{UserID: "u-1", Role: "editor"}, sec.PermManageUsers, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claims != nil {
				request = request.WithContext(ctxutil.WithAuthUser(request.Context(), tt.claims))
			}
			recorder := httptest.NewRecorder()
			middleware.RequirePermission(checker, tt.permission)(okHandler).ServeHTTP(recorder, request)
			assert.Equal(t, tt.code, recorder.Code)
		})
	}
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package constants holds fixed values shared across layers: server timing,
// token lifetimes, header names, workflow budgets and the Redis key layout.
// Anything an operator may tune lives in config instead.
package constants

import "time"

// # Metadata

const (
	AppName    = "yomira-studio"
	AppVersion = "0.4.0"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout bounds a request, and the Postgres statement_timeout.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout bounds draining in-flight requests and stopping workers.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "studio.yomira.app"

	// AccessTokenTTL is the lifetime of an issued access token.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the lifetime of a refresh session.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// AuthUserCacheTTL bounds how long a resolved /auth/me profile stays in Redis.
	AuthUserCacheTTL = 10 * time.Minute

	// RefreshTokenCookieName is the name of the cookie that stores the refresh token.
	RefreshTokenCookieName = "refresh_token"

	// RefreshTokenCookiePath is the scoped path for the refresh token cookie.
	RefreshTokenCookiePath = "/api/v1/auth"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
)

// # JSON Field Identifiers

const (
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Workflow

const (
	// DefaultBootstrapTimeout is the shared budget of a fallback chain.
	DefaultBootstrapTimeout = 8 * time.Second

	// PermissionCacheTTL bounds a cached effective permission set.
	PermissionCacheTTL = 5 * time.Minute

	// ShareTokenBytes is the entropy of a share link token.
	ShareTokenBytes = 24

	// UploadDraftTTL is how long an abandoned upload draft survives.
	UploadDraftTTL = 7 * 24 * time.Hour

	// EventBufferSize is the per-subscriber channel depth of the event hub.
	EventBufferSize = 32

	// EventHeartbeatInterval keeps idle SSE connections open through proxies.
	EventHeartbeatInterval = 25 * time.Second

	// UnavailableRetryAfter is the Retry-After, in seconds, on a 503 caused
	// by a degraded dependency.
	UnavailableRetryAfter = 5

	// JobTimeout bounds a single scheduled job run.
	JobTimeout = 5 * time.Minute

	// SessionCleanupSchedule is the cron spec of the expired session sweep.
	SessionCleanupSchedule = "@every 6h"
)

// # Redis Key Prefixes

const (
	RedisPrefixAuthUser    = "auth:me:"
	RedisPrefixPermissions = "perm:effective:"
	RedisPrefixPermGen     = "perm:generation:"
	RedisPrefixUploadDraft = "upload:draft:"
	RedisPrefixShareLink   = "share:assignment:"
	RedisPrefixEvents      = "events:"
)

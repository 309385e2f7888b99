// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth signs staff members in and resolves who they are.

Access tokens are short-lived RS256 JWTs carrying the member's role. Refresh
tokens are opaque random strings; only their SHA-256 digest is stored in
users.session, and every refresh rotates the token.

# Bootstrap

GET /auth/me resolves the caller's profile through an ordered chain that
shares one timeout budget:

  - cache: the Redis profile cache
  - database: users.account
  - emergency: a handful of embedded accounts, off unless explicitly enabled

The emergency tier never authenticates anyone. It only describes a caller
whose access token has already been verified, and every use is logged at warn
and written to the audit trail.
*/
package auth

import (
	"time"

	"github.com/taibuivan/yomira-studio/internal/platform/sec"
	"github.com/taibuivan/yomira-studio/internal/users/account"
)

// # Domain Entities

// Session represents one refresh-token session.
type Session struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	TokenHash  string     `json:"-"`
	DeviceName string     `json:"deviceName,omitempty"`
	IPAddress  string     `json:"ipAddress,omitempty"`
	UserAgent  string     `json:"userAgent,omitempty"`
	IsRevoked  bool       `json:"isRevoked"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Active reports whether the session can still be exchanged at now.
func (session *Session) Active(now time.Time) bool {
	return !session.IsRevoked && now.Before(session.ExpiresAt)
}

// Tokens is the result of a login or a refresh.
type Tokens struct {
	AccessToken string        `json:"accessToken"`
	TokenType   string        `json:"tokenType"`
	ExpiresIn   int           `json:"expiresIn"`
	User        *account.User `json:"user"`

	// RefreshToken travels in an HttpOnly cookie, never in the body.
	RefreshToken          string    `json:"-"`
	RefreshTokenExpiresAt time.Time `json:"-"`
}

// Profile is the bootstrap payload of GET /auth/me.
type Profile struct {
	User        *account.User    `json:"user"`
	Permissions []sec.Permission `json:"permissions"`

	// Source names the tier that produced the profile.
	Source   string `json:"source"`
	Degraded bool   `json:"degraded"`
}

// ClientMeta describes where a login comes from.
type ClientMeta struct {
	DeviceName string
	IPAddress  string
	UserAgent  string
}

// # Fallback Tiers

const (
	TierCache     = "cache"
	TierDatabase  = "database"
	TierEmergency = "emergency"

	chainName = "auth_me"
)

// # Field Identifiers

const (
	FieldLogin        = "login"
	FieldPassword     = "password"
	FieldRefreshToken = "refreshToken"
)

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/taibuivan/yomira-studio/internal/users/account"
)

// # Data Access

// UserStore is the part of the directory that authentication reads.
type UserStore interface {
	FindByID(context context.Context, id string) (*account.User, error)
	FindCredentials(context context.Context, login string) (*account.User, string, error)
	TouchLogin(context context.Context, id string, at time.Time) error
}

// SessionRepository defines the data access contract for refresh-token sessions.
type SessionRepository interface {

	/*
		Create persists a new session for an authenticated login.

		Parameters:
		  - context: context.Context
		  - session: *Session

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, session *Session) error

	/*
		FindByTokenHash returns the session matching the given token hash,
		revoked or not.

		Returns:
		  - *Session: Hydrated entity
		  - error: NotFound when no session matches
	*/
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)

	// Revoke marks a session as permanently invalidated. It reports whether
	// the session was still active.
	Revoke(context context.Context, sessionID string, at time.Time) (bool, error)

	// RevokeAll revokes every active session of a user.
	RevokeAll(context context.Context, userID string, at time.Time) error

	// DeleteExpired removes sessions that expired before the given instant.
	DeleteExpired(context context.Context, before time.Time) (int64, error)
}

// ProfileCache is the first tier of the /me chain. Get returns nil on a miss.
type ProfileCache interface {
	Get(context context.Context, userID string) (*account.User, error)
	Put(context context.Context, user *account.User, ttl time.Duration) error
	Invalidate(context context.Context, userID string) error
}

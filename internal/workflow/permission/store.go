// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permission

import (
	"context"

	"github.com/taibuivan/yomira-studio/internal/platform/sec"
)

// # Override Storage

// UserOverride pairs a stored override with its owner.
type UserOverride struct {
	UserID   string    `json:"userId"`
	Override *Override `json:"override"`
}

// Repository persists override records.
type Repository interface {

	/*
		GetOverride returns the override of userID.

		Returns:
		  - *Override: nil when the user has no override
		  - error: Storage failures only, never "not found"
	*/
	GetOverride(context context.Context, userID string) (*Override, error)

	// SaveOverride replaces the override of userID.
	SaveOverride(context context.Context, userID string, override *Override) error

	/*
		DeleteOverride removes the override of userID.

		Returns:
		  - bool: Whether a record existed
		  - error: Storage failures
	*/
	DeleteOverride(context context.Context, userID string) (bool, error)

	// ListOverrides returns every stored override.
	ListOverrides(context context.Context) ([]UserOverride, error)
}

// # Effective Set Cache

/*
Cache memoises effective sets. Implementations must treat every error as a miss.

Every Invalidate bumps the generation of the user. Put stores a set only while
the generation still equals the one observed before the set was read, so a
resolution racing an override write cannot restore the old set.
*/
type Cache interface {
	Get(context context.Context, userID string, role sec.UserRole) (*Set, error)
	Generation(context context.Context, userID string) (int64, error)

	// Put reports whether the set was stored.
	Put(context context.Context, userID string, role sec.UserRole, generation int64, set Set) (bool, error)

	Invalidate(context context.Context, userID string) error
}

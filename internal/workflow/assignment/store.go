// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assignment

import (
	"context"
	"time"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
)

// ErrStale is returned by [Repository.Update] when the stored assignment left
// the expected status before the write.
var ErrStale = apperr.Conflict("The assignment was changed by someone else; reload and try again")

// # Assignment Storage

// Repository persists assignments.
//
// Lookups of a missing row return an error satisfying [dberr.IsNotFound].
type Repository interface {
	Create(context context.Context, assignment *Assignment) error
	FindByID(context context.Context, id string) (*Assignment, error)

	/*
		Update writes every mutable field of assignment.

		Parameters:
		  - expected: Status the stored row must still have

		Returns:
		  - error: [ErrStale] when the status moved underneath the caller
	*/
	Update(context context.Context, assignment *Assignment, expected Status) error

	// Delete removes an assignment and reports whether it existed.
	Delete(context context.Context, id string) (bool, error)

	// List returns a page ordered by manga title, chapter and task order.
	List(context context.Context, filter Filter, limit, offset int) ([]*Assignment, int, error)

	// Stats counts assignments matching filter, deriving the delay flags at now.
	Stats(context context.Context, filter Filter, now time.Time) (Stats, error)
}

// # Share Links

// ShareStore maps hashed share tokens to assignment IDs until they expire.
type ShareStore interface {
	Save(context context.Context, tokenHash, assignmentID string, ttl time.Duration) error

	// Resolve returns the assignment ID, or "" for unknown or expired tokens.
	Resolve(context context.Context, tokenHash string) (string, error)
}

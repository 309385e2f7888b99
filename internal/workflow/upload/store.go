// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package upload

import (
	"context"
	"time"
)

// Repository persists upload reports. It has no update or delete.
type Repository interface {
	Create(context context.Context, report *Report) error
	FindByID(context context.Context, id string) (*Report, error)

	// List returns reports newest first. An empty uploaderID lists everyone's.
	List(context context.Context, uploaderID string, limit, offset int) ([]*Report, int, error)
}

// DraftStore keeps one expiring draft per uploader.
type DraftStore interface {
	// Get returns nil when the user has no draft.
	Get(context context.Context, userID string) (*Draft, error)
	Save(context context.Context, draft *Draft, ttl time.Duration) error
	Clear(context context.Context, userID string) error
}

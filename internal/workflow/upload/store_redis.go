// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-studio/internal/platform/constants"
)

// RedisDraftStore keeps drafts as JSON strings under upload:draft:{userId}.
type RedisDraftStore struct {
	client redis.Cmdable
}

// NewRedisDraftStore creates a Redis-backed [DraftStore].
func NewRedisDraftStore(client redis.Cmdable) *RedisDraftStore {
	return &RedisDraftStore{client: client}
}

// Get implements [DraftStore].
func (store *RedisDraftStore) Get(context context.Context, userID string) (*Draft, error) {
	raw, err := store.client.Get(context, constants.RedisPrefixUploadDraft+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("upload: get draft: %w", err)
	}

	var draft Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("upload: decode draft: %w", err)
	}
	return &draft, nil
}

// Save implements [DraftStore]. Every save restarts the expiry.
func (store *RedisDraftStore) Save(context context.Context, draft *Draft, ttl time.Duration) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("upload: encode draft: %w", err)
	}
	if err := store.client.Set(context, constants.RedisPrefixUploadDraft+draft.UserID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("upload: save draft: %w", err)
	}
	return nil
}

// Clear implements [DraftStore].
func (store *RedisDraftStore) Clear(context context.Context, userID string) error {
	if err := store.client.Del(context, constants.RedisPrefixUploadDraft+userID).Err(); err != nil {
		return fmt.Errorf("upload: clear draft: %w", err)
	}
	return nil
}

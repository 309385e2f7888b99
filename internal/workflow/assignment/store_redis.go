// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-studio/internal/platform/constants"
)

// RedisShareStore keeps share tokens as expiring Redis keys.
type RedisShareStore struct {
	client redis.Cmdable
}

// NewRedisShareStore creates a Redis-backed [ShareStore].
func NewRedisShareStore(client redis.Cmdable) *RedisShareStore {
	return &RedisShareStore{client: client}
}

// Save implements [ShareStore].
func (store *RedisShareStore) Save(context context.Context, tokenHash, assignmentID string, ttl time.Duration) error {
	if err := store.client.Set(context, constants.RedisPrefixShareLink+tokenHash, assignmentID, ttl).Err(); err != nil {
		return fmt.Errorf("assignment: save share link: %w", err)
	}
	return nil
}

// Resolve implements [ShareStore].
func (store *RedisShareStore) Resolve(context context.Context, tokenHash string) (string, error) {
	id, err := store.client.Get(context, constants.RedisPrefixShareLink+tokenHash).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("assignment: resolve share link: %w", err)
	}
	return id, nil
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-studio/internal/platform/constants"
	"github.com/taibuivan/yomira-studio/internal/users/account"
)

// RedisProfileCache implements [ProfileCache] with JSON values under auth:me:{userId}.
type RedisProfileCache struct {
	client redis.Cmdable
}

// NewProfileCache creates a Redis-backed profile cache.
func NewProfileCache(client redis.Cmdable) *RedisProfileCache {
	return &RedisProfileCache{client: client}
}

/*
Get returns the cached profile.

Returns:
  - *account.User: nil on a miss
  - error: Connectivity or decoding errors
*/
func (cache *RedisProfileCache) Get(context context.Context, userID string) (*account.User, error) {
	raw, err := cache.client.Get(context, constants.RedisPrefixAuthUser+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis_profile_get_failed: %w", err)
	}

	var user account.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("redis_profile_decode_failed: %w", err)
	}
	return &user, nil
}

// Put stores a profile for ttl.
func (cache *RedisProfileCache) Put(context context.Context, user *account.User, ttl time.Duration) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("redis_profile_encode_failed: %w", err)
	}
	if err := cache.client.Set(context, constants.RedisPrefixAuthUser+user.ID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis_profile_set_failed: %w", err)
	}
	return nil
}

// Invalidate drops a cached profile. It also satisfies [account.ProfileCache].
func (cache *RedisProfileCache) Invalidate(context context.Context, userID string) error {
	if err := cache.client.Del(context, constants.RedisPrefixAuthUser+userID).Err(); err != nil {
		return fmt.Errorf("redis_profile_delete_failed: %w", err)
	}
	return nil
}

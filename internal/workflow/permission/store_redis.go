// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-studio/internal/platform/constants"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
)

// RedisCache stores effective sets in one hash per user, one field per role,
// so a single DEL invalidates every role variant. A counter key next to the
// hash carries the generation.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed [Cache].
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(userID string) string {
	return constants.RedisPrefixPermissions + userID
}

func generationKey(userID string) string {
	return constants.RedisPrefixPermGen + userID
}

// KEYS: hash, generation. ARGV: observed generation, role, set, ttl in ms.
var putIfCurrent = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], ARGV[2], ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

// Get implements [Cache]. A miss returns (nil, nil).
func (cache *RedisCache) Get(context context.Context, userID string, role sec.UserRole) (*Set, error) {
	raw, err := cache.client.HGet(context, cacheKey(userID), string(role)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("permission: cache get: %w", err)
	}

	var set Set
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("permission: cache decode: %w", err)
	}
	return &set, nil
}

// Generation implements [Cache]. A user never invalidated is at 0.
func (cache *RedisCache) Generation(context context.Context, userID string) (int64, error) {
	generation, err := cache.client.Get(context, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("permission: cache generation: %w", err)
	}
	return generation, nil
}

// Put implements [Cache].
func (cache *RedisCache) Put(context context.Context, userID string, role sec.UserRole, generation int64, set Set) (bool, error) {
	raw, err := json.Marshal(set)
	if err != nil {
		return false, fmt.Errorf("permission: cache encode: %w", err)
	}

	keys := []string{cacheKey(userID), generationKey(userID)}
	stored, err := putIfCurrent.Run(context, cache.client, keys,
		strconv.FormatInt(generation, 10), string(role), raw, cache.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("permission: cache put: %w", err)
	}
	return stored == 1, nil
}

// Invalidate implements [Cache].
func (cache *RedisCache) Invalidate(context context.Context, userID string) error {
	pipe := cache.client.TxPipeline()
	pipe.Incr(context, generationKey(userID))
	pipe.Expire(context, generationKey(userID), cache.ttl)
	pipe.Del(context, cacheKey(userID))
	if _, err := pipe.Exec(context); err != nil {
		return fmt.Errorf("permission: cache invalidate: %w", err)
	}
	return nil
}

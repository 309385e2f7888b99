// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis opens the studio's Redis client.

Redis holds everything the studio can afford to lose: the /auth/me profile
cache, effective permission sets, upload drafts, share link tokens, and the
pub/sub channels of the change feed. Losing it degrades latency, never
correctness.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-studio/internal/platform/constants"
)

const (
	dialTimeout     = 3 * time.Second
	ioTimeout       = 2 * time.Second
	pingTimeout     = 2 * time.Second
	connMaxIdleTime = 5 * time.Minute
	maxRetries      = 2
)

/*
NewClient parses a Redis URL and returns a client that answered a ping.

Timeouts set here override any given in the URL. A poolSize of zero keeps the
go-redis default.
*/
func NewClient(context stdctx.Context, redisURL string, poolSize int, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	tune(options, poolSize)

	client := redis.NewClient(options)
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
		slog.Int("pool_size", options.PoolSize),
		slog.Bool("tls", options.TLSConfig != nil),
	)
	return client, nil
}

func tune(options *redis.Options, poolSize int) {
	if poolSize > 0 {
		options.PoolSize = poolSize
		options.MinIdleConns = max(1, poolSize/5)
	}
	options.ClientName = constants.AppName
	options.DialTimeout = dialTimeout
	options.ReadTimeout = ioTimeout
	options.WriteTimeout = ioTimeout
	options.ContextTimeoutEnabled = true
	options.ConnMaxIdleTime = connMaxIdleTime
	options.MaxRetries = maxRetries
}

// Ping checks the server within a short deadline of its own.
func Ping(context stdctx.Context, client redis.UniversalClient) error {
	ctx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

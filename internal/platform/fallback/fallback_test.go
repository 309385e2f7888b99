// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package fallback_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-studio/internal/platform/fallback"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func fixed(value string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return value, nil }
}

func failing(err error) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return "", err }
}

/*
TestChain_Resolve covers tier ordering, skips and exhaustion.
*/
func TestChain_Resolve(t *testing.T) {
	boom := errors.New("connection refused")

	tests := []struct {
		name       string
		strategies []fallback.Strategy[string]
		wantValue  string
		wantTier   string
		wantErr    bool
	}{
		{
			name: "first_tier_wins",
			strategies: []fallback.Strategy[string]{
				{Name: "cache", Fetch: fixed("cached")},
				{Name: "database", Fetch: fixed("fresh")},
			},
			wantValue: "cached",
			wantTier:  "cache",
		},
		{
			name: "skip_then_failure_then_success",
			strategies: []fallback.Strategy[string]{
				{Name: "cache", Fetch: failing(fallback.ErrSkip)},
				{Name: "database", Fetch: failing(boom)},
				{Name: "emergency", Fetch: fixed("static"), Degraded: true},
			},
			wantValue: "static",
			wantTier:  "emergency",
		},
		{
			name: "nil_fetch_dropped",
			strategies: []fallback.Strategy[string]{
				{Name: "disabled"},
				{Name: "database", Fetch: fixed("fresh")},
			},
			wantValue: "fresh",
			wantTier:  "database",
		},
		{
			name: "all_fail",
			strategies: []fallback.Strategy[string]{
				{Name: "cache", Fetch: failing(fallback.ErrSkip)},
				{Name: "database", Fetch: failing(boom)},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := fallback.New("test", discard, time.Second, tt.strategies...)

			value, tier, err := chain.Resolve(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, fallback.ErrExhausted)
				assert.ErrorIs(t, err, boom)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, value)
			assert.Equal(t, tt.wantTier, tier)
		})
	}
}

/*
TestChain_SharedBudget stops a hanging tier at the deadline and never reaches later tiers.
*/
func TestChain_SharedBudget(t *testing.T) {
	reached := false

	chain := fallback.New("test", discard, 50*time.Millisecond,
		fallback.Strategy[string]{Name: "stuck", Fetch: func(context.Context) (string, error) {
			time.Sleep(2 * time.Second)
			return "late", nil
		}},
		fallback.Strategy[string]{Name: "database", Fetch: func(context.Context) (string, error) {
			reached = true
			return "fresh", nil
		}},
	)

	start := time.Now()
	_, _, err := chain.Resolve(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, fallback.ErrBudgetExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, reached)
}

/*
TestChain_Observer reports every attempt in order.
*/
func TestChain_Observer(t *testing.T) {
	var seen []string

	chain := fallback.New("auth_me", discard, time.Second,
		fallback.Strategy[string]{Name: "cache", Fetch: failing(fallback.ErrSkip)},
		fallback.Strategy[string]{Name: "database", Fetch: fixed("fresh")},
	).WithObserver(func(chain, tier, outcome string) {
		seen = append(seen, chain+"/"+tier+"/"+outcome)
	})

	_, _, err := chain.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"auth_me/cache/skip", "auth_me/database/ok"}, seen)
	assert.Equal(t, []string{"cache", "database"}, chain.Tiers())
}

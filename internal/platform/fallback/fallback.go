// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package fallback resolves a value through an ordered list of named strategies
that share one timeout budget.

The first strategy to succeed wins. Every failure is logged with the tier name,
and when all tiers fail the caller receives the joined errors. A strategy that
ignores its context still cannot hold the caller past the budget: the chain
stops waiting once the deadline passes.

Usage:

	chain := fallback.New[*Profile]("auth_me", logger, 8*time.Second,
	    fallback.Strategy[*Profile]{Name: "cache", Fetch: fromCache},
	    fallback.Strategy[*Profile]{Name: "database", Fetch: fromDatabase},
	)
	profile, tier, err := chain.Resolve(ctx)
*/
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/taibuivan/yomira-studio/internal/platform/tracing"
)

var (
	// ErrSkip lets a strategy decline without counting as a failure (e.g. a cache miss).
	ErrSkip = errors.New("fallback: strategy skipped")

	// ErrExhausted is returned, joined with every tier error, when no strategy produced a value.
	ErrExhausted = errors.New("fallback: all strategies failed")

	// ErrBudgetExceeded marks a chain that ran out of time before a tier succeeded.
	ErrBudgetExceeded = errors.New("fallback: timeout budget exceeded")
)

// Strategy is one named tier of a chain.
type Strategy[T any] struct {
	Name string

	// Fetch produces the value. It receives the chain's shared deadline.
	Fetch func(ctx context.Context) (T, error)

	// Degraded tiers serve stale or synthetic data; a win is logged at warn.
	Degraded bool
}

// Observer receives one call per tier attempt. Outcome is "ok", "skip" or "error".
type Observer func(chain, tier, outcome string)

// Chain is an ordered, immutable list of strategies.
type Chain[T any] struct {
	name       string
	logger     *slog.Logger
	budget     time.Duration
	strategies []Strategy[T]
	observer   Observer
}

// New builds a chain. Strategies with a nil Fetch are dropped, which lets callers
// pass an optional tier unconditionally.
func New[T any](name string, logger *slog.Logger, budget time.Duration, strategies ...Strategy[T]) *Chain[T] {
	enabled := make([]Strategy[T], 0, len(strategies))
	for _, strategy := range strategies {
		if strategy.Fetch != nil {
			enabled = append(enabled, strategy)
		}
	}

	return &Chain[T]{
		name:       name,
		logger:     logger,
		budget:     budget,
		strategies: enabled,
		observer:   func(string, string, string) {},
	}
}

// WithObserver returns a copy of the chain reporting every attempt to observer.
func (chain *Chain[T]) WithObserver(observer Observer) *Chain[T] {
	clone := *chain
	clone.observer = observer
	return &clone
}

// Tiers lists the strategy names in resolution order.
func (chain *Chain[T]) Tiers() []string {
	names := make([]string, len(chain.strategies))
	for i, strategy := range chain.strategies {
		names[i] = strategy.Name
	}
	return names
}

type outcome[T any] struct {
	value T
	err   error
}

// Resolve runs the strategies in order and returns the first value along with the
// name of the tier that produced it.
func (chain *Chain[T]) Resolve(ctx context.Context) (T, string, error) {
	var zero T

	ctx, span := tracing.Start(ctx, "fallback."+chain.name)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, chain.budget)
	defer cancel()

	errs := make([]error, 0, len(chain.strategies)+1)

	for _, strategy := range chain.strategies {
		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("%s: %w", strategy.Name, ErrBudgetExceeded))
			break
		}

		tierCtx, tierSpan := tracing.Start(ctx, "fallback."+chain.name+"."+strategy.Name)
		value, err := chain.attempt(tierCtx, strategy)
		if err != nil && !errors.Is(err, ErrSkip) {
			tracing.Fail(tierSpan, err)
		}
		tierSpan.End()

		switch {
		case err == nil:
			span.SetAttributes(
				attribute.String("fallback.tier", strategy.Name),
				attribute.Bool("fallback.degraded", strategy.Degraded),
			)
			chain.observer(chain.name, strategy.Name, "ok")
			level := slog.LevelDebug
			if strategy.Degraded {
				level = slog.LevelWarn
			}
			chain.logger.Log(ctx, level, "fallback_resolved",
				slog.String("chain", chain.name),
				slog.String("tier", strategy.Name),
				slog.Bool("degraded", strategy.Degraded),
			)
			return value, strategy.Name, nil

		case errors.Is(err, ErrSkip):
			chain.observer(chain.name, strategy.Name, "skip")
			chain.logger.Debug("fallback_tier_skipped",
				slog.String("chain", chain.name),
				slog.String("tier", strategy.Name),
			)

		default:
			chain.observer(chain.name, strategy.Name, "error")
			chain.logger.Warn("fallback_tier_failed",
				slog.String("chain", chain.name),
				slog.String("tier", strategy.Name),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", strategy.Name, err))
		}
	}

	chain.logger.Error("fallback_exhausted",
		slog.String("chain", chain.name),
		slog.Int("tiers", len(chain.strategies)),
	)

	err := errors.Join(append([]error{ErrExhausted}, errs...)...)
	tracing.Fail(span, err)
	return zero, "", err
}

// attempt runs one strategy but never waits past the shared deadline.
func (chain *Chain[T]) attempt(ctx context.Context, strategy Strategy[T]) (T, error) {
	done := make(chan outcome[T], 1)

	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				var zero T
				done <- outcome[T]{value: zero, err: fmt.Errorf("panic: %v", recovered)}
			}
		}()
		value, err := strategy.Fetch(ctx)
		done <- outcome[T]{value: value, err: err}
	}()

	select {
	case result := <-done:
		return result.value, result.err
	case <-ctx.Done():
		var zero T
		return zero, ErrBudgetExceeded
	}
}

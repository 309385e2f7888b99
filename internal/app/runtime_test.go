// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-studio/internal/app"
	"github.com/taibuivan/yomira-studio/internal/platform/scheduler"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func blocking(started *atomic.Int32) app.Worker {
	return func(ctx context.Context) error {
		started.Add(1)
		<-ctx.Done()
		return ctx.Err()
	}
}

func TestRuntime_StopCancelsWorkers(t *testing.T) {
	var started atomic.Int32
	runtime := app.New(discard(), scheduler.New(discard(), nil, time.Second))
	runtime.Go("first", blocking(&started))
	runtime.Go("second", blocking(&started))

	runtime.Start(context.Background())
	require.Eventually(t, func() bool { return started.Load() == 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, runtime.Stop(ctx))

	select {
	case <-runtime.Done():
	default:
		t.Fatal("runtime should be done after Stop")
	}
	assert.NoError(t, runtime.Err())
}

func TestRuntime_WorkerFailureStopsSiblings(t *testing.T) {
	var started atomic.Int32
	boom := errors.New("broker unreachable")

	runtime := app.New(discard(), nil)
	runtime.Go("event_hub", func(context.Context) error { return boom })
	runtime.Go("rate_limiter", blocking(&started))

	runtime.Start(context.Background())

	select {
	case <-runtime.Done():
	case <-time.After(time.Second):
		t.Fatal("a failing worker should end the runtime")
	}

	require.Error(t, runtime.Err())
	assert.ErrorIs(t, runtime.Err(), boom)
	assert.Contains(t, runtime.Err().Error(), "event_hub")
}

func TestRuntime_StopBeforeStart(t *testing.T) {
	runtime := app.New(discard(), nil)
	assert.NoError(t, runtime.Stop(context.Background()))
	assert.NoError(t, runtime.Err())
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-studio/internal/platform/scheduler"
)

type recorder struct {
	runs []string
}

func (r *recorder) CronRun(jobName string, _ time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.runs = append(r.runs, jobName+":"+outcome)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

/*
TestScheduler_Add rejects malformed specs.
*/
func TestScheduler_Add(t *testing.T) {
	s := scheduler.New(discard, nil, time.Second)

	require.NoError(t, s.Add("repair", "@every 1h", func(context.Context) error { return nil }))
	assert.Error(t, s.Add("broken", "every now and then", func(context.Context) error { return nil }))
	assert.Equal(t, 1, s.Jobs())
}

/*
TestScheduler_Run records the outcome and bounds the job context.
*/
func TestScheduler_Run(t *testing.T) {
	rec := &recorder{}
	s := scheduler.New(discard, rec, 20*time.Millisecond)

	assert.NoError(t, s.Run("repair", func(context.Context) error { return nil }))

	err := s.Run("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	assert.Equal(t, []string{"repair:ok", "slow:error"}, rec.runs)
}

/*
TestScheduler_StopCancelsJobs cancels the job context on shutdown.
*/
func TestScheduler_StopCancelsJobs(t *testing.T) {
	s := scheduler.New(discard, nil, time.Minute)
	s.Start()

	stopped := make(chan error, 1)
	go func() {
		stopped <- s.Run("long", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	time.Sleep(10 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case err := <-stopped:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("job was not cancelled")
	}
}

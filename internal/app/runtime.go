// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package app owns the background side of the studio process: the event hub
listener, the rate limiter janitor and the cron scheduler.

Lifecycle:

	runtime := app.New(logger, jobs)
	runtime.Go("event_hub", hub.Run)
	runtime.Start(ctx)
	...
	runtime.Stop(shutdownCtx)

A worker that fails while the runtime is running cancels its siblings and
closes [Runtime.Done], so the process can shut down instead of serving with
a dead change feed.
*/
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/yomira-studio/internal/platform/scheduler"
)

// Worker is a long-running loop that returns when ctx is cancelled.
type Worker func(ctx context.Context) error

type namedWorker struct {
	name string
	run  Worker
}

// Runtime supervises the background workers and the job scheduler.
type Runtime struct {
	logger    *slog.Logger
	scheduler *scheduler.Scheduler
	workers   []namedWorker

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// New creates a stopped runtime. jobs may be nil.
func New(logger *slog.Logger, jobs *scheduler.Scheduler) *Runtime {
	return &Runtime{
		logger:    logger,
		scheduler: jobs,
		done:      make(chan struct{}),
	}
}

// Go registers a worker. It must be called before [Runtime.Start].
func (runtime *Runtime) Go(name string, run Worker) {
	runtime.workers = append(runtime.workers, namedWorker{name: name, run: run})
}

// Start launches every worker and the scheduler.
func (runtime *Runtime) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	runtime.cancel = cancel

	group, groupCtx := errgroup.WithContext(ctx)
	for _, worker := range runtime.workers {
		group.Go(func() error {
			runtime.logger.Info("runtime_worker_started", slog.String("worker", worker.name))
			err := worker.run(groupCtx)
			if err != nil && groupCtx.Err() == nil {
				runtime.logger.Error("runtime_worker_failed",
					slog.String("worker", worker.name),
					slog.Any("error", err),
				)
				return fmt.Errorf("%s: %w", worker.name, err)
			}
			return nil
		})
	}

	go func() {
		runtime.err = group.Wait()
		close(runtime.done)
	}()

	if runtime.scheduler != nil {
		runtime.scheduler.Start()
	}

	runtime.logger.Info("runtime_started", slog.Int("workers", len(runtime.workers)))
}

// Done is closed once every worker has returned.
func (runtime *Runtime) Done() <-chan struct{} {
	return runtime.done
}

// Err reports the first worker failure. It is only meaningful after Done is closed.
func (runtime *Runtime) Err() error {
	select {
	case <-runtime.done:
		return runtime.err
	default:
		return nil
	}
}

// Stop cancels the workers, stops the scheduler and waits for both up to ctx.
func (runtime *Runtime) Stop(ctx context.Context) error {
	if runtime.cancel == nil {
		return nil
	}
	runtime.cancel()

	var stopErr error
	if runtime.scheduler != nil {
		stopErr = runtime.scheduler.Stop(ctx)
	}

	select {
	case <-runtime.done:
	case <-ctx.Done():
		stopErr = errors.Join(stopErr, fmt.Errorf("runtime: workers still running: %w", ctx.Err()))
	}

	runtime.logger.Info("runtime_stopped")
	return errors.Join(stopErr, runtime.Err())
}

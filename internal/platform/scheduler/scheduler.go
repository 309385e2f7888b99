// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package scheduler runs periodic maintenance jobs on top of robfig/cron.

Jobs receive a context bounded by their own timeout and the scheduler's
lifetime. A job that is still running when its next tick arrives is skipped,
and a panicking job is recovered and logged.
*/
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// RunRecorder receives the outcome of each run. The metrics registry satisfies it.
type RunRecorder interface {
	CronRun(jobName string, duration time.Duration, err error)
}

// Scheduler owns a cron instance and the context its jobs run under.
type Scheduler struct {
	cron     *cron.Cron
	logger   *slog.Logger
	recorder RunRecorder
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a stopped scheduler. recorder may be nil.
func New(logger *slog.Logger, recorder RunRecorder, timeout time.Duration) *Scheduler {
	cronLogger := &slogAdapter{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger:   logger,
		recorder: recorder,
		timeout:  timeout,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Add registers job under name with a standard cron spec or descriptor ("@every 1h").
func (scheduler *Scheduler) Add(name, spec string, job Job) error {
	_, err := scheduler.cron.AddFunc(spec, func() {
		scheduler.Run(name, job)
	})
	if err != nil {
		return fmt.Errorf("scheduler: invalid spec %q for %s: %w", spec, name, err)
	}

	scheduler.logger.Info("scheduler_job_registered", slog.String("job", name), slog.String("spec", spec))
	return nil
}

// Run executes job once, synchronously, with the usual timeout, logging and metrics.
func (scheduler *Scheduler) Run(name string, job Job) error {
	ctx, cancel := context.WithTimeout(scheduler.ctx, scheduler.timeout)
	defer cancel()

	start := time.Now()
	err := job(ctx)
	elapsed := time.Since(start)

	if scheduler.recorder != nil {
		scheduler.recorder.CronRun(name, elapsed, err)
	}

	if err != nil {
		scheduler.logger.Error("scheduler_job_failed",
			slog.String("job", name),
			slog.Int64("duration_ms", elapsed.Milliseconds()),
			slog.Any("error", err),
		)
		return err
	}

	scheduler.logger.Info("scheduler_job_finished",
		slog.String("job", name),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)
	return nil
}

// Jobs returns the number of registered jobs.
func (scheduler *Scheduler) Jobs() int {
	return len(scheduler.cron.Entries())
}

// Start begins firing jobs in the background.
func (scheduler *Scheduler) Start() {
	scheduler.cron.Start()
}

// Stop prevents new runs, cancels running jobs and waits for them up to ctx.
func (scheduler *Scheduler) Stop(ctx context.Context) error {
	done := scheduler.cron.Stop()
	scheduler.cancel()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: stop: %w", ctx.Err())
	}
}

// slogAdapter satisfies cron.Logger.
type slogAdapter struct {
	logger *slog.Logger
}

func (adapter *slogAdapter) Info(msg string, keysAndValues ...interface{}) {
	adapter.logger.Debug("cron_"+msg, keysAndValues...)
}

func (adapter *slogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	adapter.logger.Error("cron_"+msg, append(keysAndValues, "error", err)...)
}

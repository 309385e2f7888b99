// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Yomira Studio HTTP API server.
//
// # Startup Sequence
//
//  1. Load configuration from environment variables.
//  2. Initialize structured logger and tracing.
//  3. Connect to PostgreSQL (pgxpool) and Redis.
//  4. Run database migrations (idempotent).
//  5. Wire the domain services and their HTTP handlers.
//  6. Register scheduled jobs and start the background runtime.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/yomira-studio/internal/api"
	"github.com/taibuivan/yomira-studio/internal/app"
	"github.com/taibuivan/yomira-studio/internal/core/manga"
	"github.com/taibuivan/yomira-studio/internal/platform/config"
	"github.com/taibuivan/yomira-studio/internal/platform/constants"
	"github.com/taibuivan/yomira-studio/internal/platform/events"
	"github.com/taibuivan/yomira-studio/internal/platform/logging"
	"github.com/taibuivan/yomira-studio/internal/platform/middleware"
	"github.com/taibuivan/yomira-studio/internal/platform/migration"
	pgstore "github.com/taibuivan/yomira-studio/internal/platform/postgres"
	redisstore "github.com/taibuivan/yomira-studio/internal/platform/redis"
	"github.com/taibuivan/yomira-studio/internal/platform/tracing"
	"github.com/taibuivan/yomira-studio/internal/users/account"
	"github.com/taibuivan/yomira-studio/internal/users/auth"
	"github.com/taibuivan/yomira-studio/internal/workflow/assignment"
	"github.com/taibuivan/yomira-studio/internal/workflow/permission"
	"github.com/taibuivan/yomira-studio/internal/workflow/upload"
)

func main() {
	// ── 1. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet; stderr is all we have.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// ── 2. Logger & Tracing ───────────────────────────────────────────────
	log, logFile := logging.New(logging.Options{
		Debug:      cfg.Debug,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer logFile.Close()

	log.Info("configuration_loaded",
		slog.String("version", constants.AppVersion),
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("emergency_accounts", cfg.EmergencyAccountsEnabled),
	)

	// Misconfiguration must fail fast rather than hang.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	shutdownTracing, err := tracing.Setup(startupCtx, tracing.Options{
		Endpoint:    cfg.TracingEndpoint,
		Insecure:    cfg.TracingInsecure,
		SampleRatio: cfg.TracingSampleRatio,
		Environment: cfg.Environment,
	}, log)
	must(log, err, "initialize tracing")

	// ── 3. PostgreSQL & Redis ─────────────────────────────────────────────
	infra, err := app.Connect(startupCtx, cfg, log)
	must(log, err, "connect to storage")
	defer func() {
		log.Info("storage_closing")
		if cerr := infra.Close(); cerr != nil {
			log.Error("storage_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 4. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	services, err := app.Wire(cfg, infra, log)
	must(log, err, "wire services")

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		Database: func(ctx context.Context) error { return pgstore.Ping(ctx, infra.Pool) },
		Cache:    func(ctx context.Context) error { return redisstore.Ping(ctx, infra.Redis) },
	}, log)

	clientConfig := api.NewClientConfigHandler(cfg, api.ClientConfig{
		APIBaseURL:  cfg.PublicAPIURL,
		RealtimeURL: cfg.RealtimeURL,
		Environment: cfg.Environment,
		Version:     constants.AppVersion,
	}, services.Registry)

	// ── 6. Scheduled Jobs & Background Runtime ────────────────────────────
	jobs, err := services.Jobs(cfg, log)
	must(log, err, "register scheduled jobs")

	runtime := app.New(log, jobs)
	runtime.Go("event_hub", services.Hub.Run)
	runtime.Go("rate_limiter", func(ctx context.Context) error {
		limiter.Run(ctx)
		return nil
	})
	runtime.Start(context.Background())

	// Heal drift left by a crash between an upload and its chapter publish.
	go func() {
		_ = jobs.Run(app.JobChapterRepair, services.Repair)
	}()

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(cfg, log, api.Options{
		Verifier:    services.Tokens,
		RateLimiter: limiter,
		Instrument:  services.Registry.Instrument,
	}, api.Handlers{
		Liveness:     liveness,
		Readiness:    readiness,
		ClientConfig: clientConfig,
		Metrics:      services.Registry.Handler(),
		Auth:         auth.NewHandler(services.Auth, !cfg.IsDevelopment()),
		Users:        account.NewHandler(services.Accounts, services.Permissions),
		Permissions:  permission.NewHandler(services.Permissions, services.Accounts, services.Audit),
		Mangas:       manga.NewHandler(services.Mangas, services.Permissions),
		Assignments:  assignment.NewHandler(services.Assignments, services.Permissions),
		Uploads:      upload.NewHandler(services.Uploads, services.Permissions),
		Events:       events.NewStreamHandler(services.Hub),
	})

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	case <-runtime.Done():
		log.Error("runtime_failed", slog.Any("error", runtime.Err()))
	}

	log.Info("server_shutting_down", slog.Duration("timeout", constants.ShutdownTimeout))

	var shutdownErr error
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		shutdownErr = errors.Join(shutdownErr, fmt.Errorf("http server: %w", err))
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer stopCancel()

	if err := runtime.Stop(stopCtx); err != nil {
		shutdownErr = errors.Join(shutdownErr, err)
	}
	if err := shutdownTracing(stopCtx); err != nil {
		shutdownErr = errors.Join(shutdownErr, fmt.Errorf("tracing: %w", err))
	}

	if shutdownErr != nil {
		log.Error("shutdown_failed", slog.Any("error", shutdownErr))
		return
	}
	log.Info("server_stopped")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

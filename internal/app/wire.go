// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-studio/internal/core/manga"
	"github.com/taibuivan/yomira-studio/internal/platform/audit"
	"github.com/taibuivan/yomira-studio/internal/platform/config"
	"github.com/taibuivan/yomira-studio/internal/platform/constants"
	"github.com/taibuivan/yomira-studio/internal/platform/events"
	"github.com/taibuivan/yomira-studio/internal/platform/metrics"
	pgstore "github.com/taibuivan/yomira-studio/internal/platform/postgres"
	redisstore "github.com/taibuivan/yomira-studio/internal/platform/redis"
	"github.com/taibuivan/yomira-studio/internal/platform/scheduler"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
	"github.com/taibuivan/yomira-studio/internal/users/account"
	"github.com/taibuivan/yomira-studio/internal/users/auth"
	"github.com/taibuivan/yomira-studio/internal/workflow/assignment"
	"github.com/taibuivan/yomira-studio/internal/workflow/permission"
	"github.com/taibuivan/yomira-studio/internal/workflow/upload"
)

// # Infrastructure

// Infra holds the shared connections.
type Infra struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// Connect opens PostgreSQL and Redis, closing the pool again if Redis fails.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Infra, error) {
	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, pgstore.Options{
		MaxConns: cfg.DatabaseMaxConns,
		MinConns: cfg.DatabaseMinConns,
	}, logger)
	if err != nil {
		return nil, err
	}

	client, err := redisstore.NewClient(ctx, cfg.RedisURL, cfg.RedisPoolSize, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &Infra{Pool: pool, Redis: client}, nil
}

// Close releases both connections.
func (infra *Infra) Close() error {
	infra.Pool.Close()
	if err := infra.Redis.Close(); err != nil {
		return fmt.Errorf("redis: close: %w", err)
	}
	return nil
}

// # Services

// Services is the fully wired domain layer shared by the API server and studioctl.
type Services struct {
	Registry *metrics.Registry
	Hub      *events.Hub
	Audit    *audit.Log
	Tokens   *sec.TokenService

	Permissions *permission.Service
	Accounts    *account.Service
	Auth        *auth.Service
	Mangas      *manga.Service
	Assignments *assignment.Service
	Uploads     *upload.Service
}

// Wire builds every service over infra.
func Wire(cfg *config.Config, infra *Infra, logger *slog.Logger) (*Services, error) {
	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	if err != nil {
		return nil, fmt.Errorf("app: jwt keys: %w", err)
	}
	logger.Info("token_service_ready", slog.String("key_id", tokens.KeyID()))

	var emergency auth.EmergencyDirectory
	if cfg.EmergencyAccountsEnabled {
		emergency, err = auth.LoadEmergencyDirectory()
		if err != nil {
			return nil, fmt.Errorf("app: emergency accounts: %w", err)
		}
		logger.Warn("emergency_accounts_enabled",
			slog.Int("accounts", len(emergency)),
			slog.Bool("security_event", true),
		)
	}

	pool, rdb := infra.Pool, infra.Redis

	registry := metrics.New()
	hub := events.NewHub(events.NewRedisBroker(rdb), logger, registry)
	auditLog := audit.NewLog(pool)
	profiles := auth.NewProfileCache(rdb)
	accounts := account.NewPostgresRepository(pool)

	permissions := permission.NewService(permission.Deps{
		Repository: permission.NewPostgresRepository(pool),
		Cache:      permission.NewRedisCache(rdb, constants.PermissionCacheTTL),
		Publisher:  hub,
		Subscriber: hub,
		Audit:      auditLog,
		Recorder:   registry,
		Logger:     logger,
	})

	mangas := manga.NewService(manga.NewPostgresRepository(pool), hub, registry, logger)

	services := &Services{
		Registry:    registry,
		Hub:         hub,
		Audit:       auditLog,
		Tokens:      tokens,
		Permissions: permissions,
		Accounts:    account.NewService(accounts, auditLog, hub, profiles, logger),
		Mangas:      mangas,
		Auth: auth.NewService(auth.Deps{
			Users:       accounts,
			Sessions:    auth.NewSessionRepository(pool),
			Cache:       profiles,
			Tokens:      tokens,
			Permissions: permissions,
			Emergency:   emergency,
			Audit:       auditLog,
			Observer:    registry.FallbackAttempt,
			Budget:      cfg.BootstrapTimeout,
			Logger:      logger,
		}),
	}

	services.Assignments = assignment.NewService(assignment.Deps{
		Repository: assignment.NewPostgresRepository(pool),
		Mangas:     mangas,
		Assignees:  services.Accounts,
		Checker:    permissions,
		Publisher:  hub,
		Audit:      auditLog,
		Recorder:   registry,
		Shares:     assignment.NewRedisShareStore(rdb),
		ShareTTL:   cfg.ShareLinkTTL,
		Logger:     logger,
	})

	services.Uploads = upload.NewService(upload.Deps{
		Repository: upload.NewPostgresRepository(pool),
		Drafts:     upload.NewRedisDraftStore(rdb),
		Workflow:   services.Assignments,
		Chapters:   mangas,
		Events:     hub,
		Audit:      auditLog,
		Recorder:   registry,
		Logger:     logger,
	})

	return services, nil
}

// # Scheduled Jobs

// Job names, also used as metric labels.
const (
	JobChapterRepair  = "chapter_repair"
	JobSessionCleanup = "session_cleanup"
)

// Repair runs the chapter/assignment reconciliation once.
func (services *Services) Repair(ctx context.Context) error {
	_, err := services.Mangas.SyncAssignmentsWithPublishedChapters(ctx)
	return err
}

// Jobs returns a scheduler with the repair and session cleanup jobs registered.
func (services *Services) Jobs(cfg *config.Config, logger *slog.Logger) (*scheduler.Scheduler, error) {
	jobs := scheduler.New(logger, services.Registry, constants.JobTimeout)

	err := errors.Join(
		jobs.Add(JobChapterRepair, cfg.RepairSchedule, services.Repair),
		jobs.Add(JobSessionCleanup, constants.SessionCleanupSchedule, services.Auth.CleanupSessions),
	)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

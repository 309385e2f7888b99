// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration applies the studio schema (users and studio) with
// golang-migrate before the server accepts traffic.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	// pgx5 driver registers "pgx5" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// file source reads .sql files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrDirty means a previous run failed midway and the schema needs a manual
// fix before anything else is applied.
var ErrDirty = errors.New("migration: database is dirty")

// State is the schema version recorded in schema_migrations. Version is 0
// on an empty database.
type State struct {
	Version uint
	Dirty   bool
}

// RunUp applies all pending up migrations. dsn may be a postgres:// URL;
// migrationsPath is a directory, with or without a file:// prefix.
func RunUp(dsn, migrationsPath string, logger *slog.Logger) error {
	migrator, closeMigrator, err := open(dsn, migrationsPath, logger)
	if err != nil {
		return err
	}
	defer closeMigrator()

	before, err := readState(migrator)
	if err != nil {
		return err
	}
	if before.Dirty {
		return fmt.Errorf("%w at version %d", ErrDirty, before.Version)
	}

	logger.Info("migration_started", slog.Uint64("current_version", uint64(before.Version)))
	started := time.Now()

	err = migrator.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("migration_already_up_to_date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration: up: %w", err)
	}

	after, err := readState(migrator)
	if err != nil {
		return err
	}
	logger.Info("migration_successful",
		slog.Uint64("from_version", uint64(before.Version)),
		slog.Uint64("to_version", uint64(after.Version)),
		slog.Duration("took", time.Since(started)),
	)
	return nil
}

// Inspect reports the current schema version without changing anything.
func Inspect(dsn, migrationsPath string, logger *slog.Logger) (State, error) {
	migrator, closeMigrator, err := open(dsn, migrationsPath, logger)
	if err != nil {
		return State{}, err
	}
	defer closeMigrator()
	return readState(migrator)
}

func open(dsn, migrationsPath string, logger *slog.Logger) (*migrate.Migrate, func(), error) {
	sourceURL := "file://" + strings.TrimPrefix(migrationsPath, "file://")

	migrator, err := migrate.New(sourceURL, DriverURL(dsn))
	if err != nil {
		return nil, nil, fmt.Errorf("migration: initialize: %w", err)
	}
	migrator.Log = &migrateLogger{
		logger:  logger,
		verbose: logger.Enabled(context.Background(), slog.LevelDebug),
	}

	closeMigrator := func() {
		sourceErr, databaseErr := migrator.Close()
		if err := errors.Join(sourceErr, databaseErr); err != nil {
			logger.Error("migration_close_failed", slog.Any("error", err))
		}
	}
	return migrator, closeMigrator, nil
}

func readState(migrator *migrate.Migrate) (State, error) {
	version, dirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("migration: read version: %w", err)
	}
	return State{Version: version, Dirty: dirty}, nil
}

// DriverURL rewrites a postgres:// or postgresql:// DSN to the pgx5:// scheme
// the golang-migrate pgx/v5 driver registers. Other inputs are returned as is.
func DriverURL(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, found := strings.CutPrefix(dsn, prefix); found {
			return "pgx5://" + rest
		}
	}
	return dsn
}

// migrateLogger routes golang-migrate output to slog at debug level.
type migrateLogger struct {
	logger  *slog.Logger
	verbose bool
}

func (l *migrateLogger) Printf(format string, args ...any) {
	l.logger.Debug("migration_log", slog.String("line", strings.TrimSpace(fmt.Sprintf(format, args...))))
}

func (l *migrateLogger) Verbose() bool {
	return l.verbose
}

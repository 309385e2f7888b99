// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-studio/internal/platform/database/schema"
	"github.com/taibuivan/yomira-studio/internal/platform/dberr"
)

// PostgresSessionRepository implements [SessionRepository] on users.session.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a PostgreSQL backed session store.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// Create implements [SessionRepository].
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	table := schema.UserSession
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		table.Table, strings.Join(table.Columns(), ", "),
	)

	_, err := repository.pool.Exec(context, query,
		session.ID, session.UserID, session.TokenHash,
		nullable(session.DeviceName), nullable(session.IPAddress), nullable(session.UserAgent),
		session.IsRevoked, session.ExpiresAt, session.RevokedAt, session.CreatedAt,
	)
	return dberr.Wrap(err, "insert session")
}

// FindByTokenHash implements [SessionRepository].
func (repository *PostgresSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	table := schema.UserSession
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(table.Columns(), ", "), table.Table, table.TokenHash,
	)

	var session Session
	var deviceName, ipAddress, userAgent *string
	err := repository.pool.QueryRow(context, query, tokenHash).Scan(
		&session.ID, &session.UserID, &session.TokenHash,
		&deviceName, &ipAddress, &userAgent,
		&session.IsRevoked, &session.ExpiresAt, &session.RevokedAt, &session.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find session")
	}

	session.DeviceName = deref(deviceName)
	session.IPAddress = deref(ipAddress)
	session.UserAgent = deref(userAgent)
	return &session, nil
}

/*
Revoke implements [SessionRepository].

Description: The update only matches an active row, so of two concurrent
refreshes of one token exactly one observes true.
*/
func (repository *PostgresSessionRepository) Revoke(context context.Context, sessionID string, at time.Time) (bool, error) {
	table := schema.UserSession
	query := fmt.Sprintf(`UPDATE %s SET %s = TRUE, %s = $2 WHERE %s = $1 AND %s = FALSE`,
		table.Table, table.IsRevoked, table.RevokedAt, table.ID, table.IsRevoked,
	)

	tag, err := repository.pool.Exec(context, query, sessionID, at)
	if err != nil {
		return false, dberr.Wrap(err, "revoke session")
	}
	return tag.RowsAffected() == 1, nil
}

// RevokeAll implements [SessionRepository].
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, userID string, at time.Time) error {
	table := schema.UserSession
	query := fmt.Sprintf(`UPDATE %s SET %s = TRUE, %s = $2 WHERE %s = $1 AND %s = FALSE`,
		table.Table, table.IsRevoked, table.RevokedAt, table.UserID, table.IsRevoked,
	)

	_, err := repository.pool.Exec(context, query, userID, at)
	return dberr.Wrap(err, "revoke user sessions")
}

// DeleteExpired implements [SessionRepository].
func (repository *PostgresSessionRepository) DeleteExpired(context context.Context, before time.Time) (int64, error) {
	table := schema.UserSession
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s < $1`, table.Table, table.ExpiresAt)

	tag, err := repository.pool.Exec(context, query, before)
	if err != nil {
		return 0, dberr.Wrap(err, "delete expired sessions")
	}
	return tag.RowsAffected(), nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

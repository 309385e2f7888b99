// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package audit appends entries to the system audit trail (system.auditlog).
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-studio/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-studio/internal/platform/database/schema"
	"github.com/taibuivan/yomira-studio/pkg/uuid"
)

// # Actions

const (
	ActionSetPermissionOverride   = "set_permission_override"
	ActionClearPermissionOverride = "clear_permission_override"
	ActionCreateUser              = "create_user"
	ActionChangeRole              = "change_role"
	ActionChangeStatus            = "change_status"
	ActionDeleteAssignment        = "delete_assignment"
	ActionFinalizeUpload          = "finalize_upload"
	ActionEmergencyLogin          = "emergency_login"
)

// # Entity Types

const (
	EntityUserPermission = "user_permission"
	EntityUser           = "user"
	EntityAssignment     = "assignment"
	EntityUploadReport   = "upload_report"
)

// Entry is one audit record. Before and After are stored as JSON.
type Entry struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	IPAddress  string          `json:"ipAddress,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Recorder is the write side used by services.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// PermissionEntityID builds the "{timestamp}_{userId}" key used for permission entries.
func PermissionEntityID(at time.Time, userID string) string {
	return fmt.Sprintf("%d_%s", at.UnixMilli(), userID)
}

// Snapshot marshals value for an Entry's Before/After field.
// Unmarshalable values are stored as null.
func Snapshot(value any) json.RawMessage {
	if value == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return json.RawMessage("null")
	}
	return raw
}

// # PostgreSQL

// Log persists entries to system.auditlog.
type Log struct {
	pool *pgxpool.Pool
}

// NewLog creates a Postgres-backed audit log.
func NewLog(pool *pgxpool.Pool) *Log {
	return &Log{pool: pool}
}

// Record implements [Recorder].
func (log *Log) Record(ctx context.Context, entry Entry) error {
	entry = stamp(ctx, entry)

	table := schema.SystemAuditLog
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, NULLIF($8, ''), $9)`,
		table.Table,
		table.ID, table.ActorID, table.Action, table.EntityType, table.EntityID,
		table.Before, table.After, table.IPAddress, table.CreatedAt,
	)

	_, err := log.pool.Exec(ctx, query,
		entry.ID, entry.ActorID, entry.Action, entry.EntityType, entry.EntityID,
		nullableJSON(entry.Before), nullableJSON(entry.After), entry.IPAddress, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: record %s: %w", entry.Action, err)
	}
	return nil
}

// List returns the newest entries for an entity type.
func (log *Log) List(ctx context.Context, entityType string, limit int) ([]Entry, error) {
	table := schema.SystemAuditLog
	query := fmt.Sprintf(`
		SELECT %s, COALESCE(%s, ''), %s, %s, %s, %s, %s, COALESCE(%s, ''), %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT $2`,
		table.ID, table.ActorID, table.Action, table.EntityType, table.EntityID,
		table.Before, table.After, table.IPAddress, table.CreatedAt,
		table.Table,
		table.EntityType,
		table.CreatedAt,
	)

	rows, err := log.pool.Query(ctx, query, entityType, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var before, after []byte
		if err := rows.Scan(
			&entry.ID, &entry.ActorID, &entry.Action, &entry.EntityType, &entry.EntityID,
			&before, &after, &entry.IPAddress, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		entry.Before = before
		entry.After = after
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// stamp fills the fields a caller usually leaves to the request context.
func stamp(ctx context.Context, entry Entry) Entry {
	if entry.ID == "" {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.IPAddress == "" {
		entry.IPAddress = ctxutil.ClientIP(ctx)
	}
	return entry
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

// # In-Memory

// Memory keeps entries in a slice for tests and single-process tooling.
type Memory struct {
	Entries []Entry
	Err     error
}

// Record implements [Recorder].
func (memory *Memory) Record(ctx context.Context, entry Entry) error {
	if memory.Err != nil {
		return memory.Err
	}
	memory.Entries = append(memory.Entries, stamp(ctx, entry))
	return nil
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-studio/internal/platform/database/schema"
)

// PostgresRepository implements [Repository] on studio.userpermission.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetOverride implements [Repository].
func (repository *PostgresRepository) GetOverride(context context.Context, userID string) (*Override, error) {
	table := schema.StudioUserPermission
	query := fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = $1`,
		table.Overrides, table.LastUpdated, table.UpdatedBy,
		table.Table, table.UserID,
	)

	var raw []byte
	var stored Override
	err := repository.pool.QueryRow(context, query, userID).Scan(&raw, &stored.LastUpdated, &stored.UpdatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("permission: get override: %w", err)
	}

	return decodeOverride(raw, stored)
}

// SaveOverride implements [Repository].
func (repository *PostgresRepository) SaveOverride(context context.Context, userID string, override *Override) error {
	raw, err := json.Marshal(override.Values())
	if err != nil {
		return fmt.Errorf("permission: encode override: %w", err)
	}

	table := schema.StudioUserPermission
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (%s) DO UPDATE
		SET %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s`,
		table.Table, table.UserID, table.Overrides, table.LastUpdated, table.UpdatedBy,
		table.UserID,
		table.Overrides, table.Overrides,
		table.LastUpdated, table.LastUpdated,
		table.UpdatedBy, table.UpdatedBy,
	)

	if _, err := repository.pool.Exec(context, query, userID, raw, override.LastUpdated, override.UpdatedBy); err != nil {
		return fmt.Errorf("permission: save override: %w", err)
	}
	return nil
}

// DeleteOverride implements [Repository].
func (repository *PostgresRepository) DeleteOverride(context context.Context, userID string) (bool, error) {
	table := schema.StudioUserPermission
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.UserID)

	tag, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return false, fmt.Errorf("permission: delete override: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListOverrides implements [Repository].
func (repository *PostgresRepository) ListOverrides(context context.Context) ([]UserOverride, error) {
	table := schema.StudioUserPermission
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s ORDER BY %s DESC`,
		table.UserID, table.Overrides, table.LastUpdated, table.UpdatedBy,
		table.Table, table.LastUpdated,
	)

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, fmt.Errorf("permission: list overrides: %w", err)
	}
	defer rows.Close()

	var result []UserOverride
	for rows.Next() {
		var userID string
		var raw []byte
		var stored Override
		if err := rows.Scan(&userID, &raw, &stored.LastUpdated, &stored.UpdatedBy); err != nil {
			return nil, fmt.Errorf("permission: scan override: %w", err)
		}
		override, err := decodeOverride(raw, stored)
		if err != nil {
			return nil, err
		}
		result = append(result, UserOverride{UserID: userID, Override: override})
	}

	return result, rows.Err()
}

// decodeOverride rebuilds an override from its JSONB column. Keys that left the
// catalog since the row was written are ignored.
func decodeOverride(raw []byte, meta Override) (*Override, error) {
	values := make(map[string]bool)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("permission: malformed override record: %w", err)
		}
	}

	override, _ := OverrideFromMap(values)
	override.LastUpdated = meta.LastUpdated
	override.UpdatedBy = meta.UpdatedBy
	return override, nil
}

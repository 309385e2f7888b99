// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-studio/internal/platform/database/schema"
	"github.com/taibuivan/yomira-studio/internal/platform/dberr"
)

// PostgresRepository implements [Repository] on studio.uploadreport. The
// chapter list is stored as JSONB.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed report store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create implements [Repository].
func (repository *PostgresRepository) Create(context context.Context, report *Report) error {
	chapters, err := json.Marshal(report.Chapters)
	if err != nil {
		return fmt.Errorf("upload: encode chapters: %w", err)
	}

	table := schema.StudioUploadReport
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		table.Table, strings.Join(table.Columns(), ", "),
	)

	_, err = repository.pool.Exec(context, query,
		report.ID, report.UploaderID, report.UploaderName, chapters,
		report.TotalChapters, report.Notes, report.CreatedAt,
	)
	return dberr.Wrap(err, "insert upload report")
}

// FindByID implements [Repository].
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Report, error) {
	table := schema.StudioUploadReport
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(table.Columns(), ", "), table.Table, table.ID,
	)

	report, err := scanReport(repository.pool.QueryRow(context, query, id), nil)
	if err != nil {
		return nil, dberr.Wrap(err, "find upload report")
	}
	return report, nil
}

// List implements [Repository].
func (repository *PostgresRepository) List(context context.Context, uploaderID string, limit, offset int) ([]*Report, int, error) {
	table := schema.StudioUploadReport

	query := fmt.Sprintf(`
		SELECT %[1]s, COUNT(*) OVER() AS total_count
		FROM %[2]s
		WHERE ($1 = '' OR %[3]s = $1)
		ORDER BY %[4]s DESC
		LIMIT $2 OFFSET $3`,
		strings.Join(table.Columns(), ", "), table.Table, table.UploaderID, table.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, uploaderID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list upload reports")
	}
	defer rows.Close()

	var reports []*Report
	total := 0
	for rows.Next() {
		report, err := scanReport(rows, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan upload report")
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "iterate upload reports")
	}
	return reports, total, nil
}

func scanReport(row pgx.Row, total *int) (*Report, error) {
	var report Report
	var chapters []byte

	dest := []any{
		&report.ID, &report.UploaderID, &report.UploaderName, &chapters,
		&report.TotalChapters, &report.Notes, &report.CreatedAt,
	}
	if total != nil {
		dest = append(dest, total)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(chapters, &report.Chapters); err != nil {
		return nil, fmt.Errorf("decode chapters: %w", err)
	}
	return &report, nil
}

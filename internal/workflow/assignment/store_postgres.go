// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assignment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-studio/internal/core/manga"
	"github.com/taibuivan/yomira-studio/internal/platform/database/schema"
	"github.com/taibuivan/yomira-studio/internal/platform/dberr"
)

// # PostgreSQL Repository

// PostgresRepository implements [Repository] on studio.assignment.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed assignment store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create implements [Repository].
func (repository *PostgresRepository) Create(context context.Context, assignment *Assignment) error {
	table := schema.StudioAssignment

	placeholders := make([]string, len(table.Columns()))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		table.Table, strings.Join(table.Columns(), ", "), strings.Join(placeholders, ", "),
	)

	_, err := repository.pool.Exec(context, query, values(assignment)...)
	return dberr.Wrap(err, "insert assignment")
}

// FindByID implements [Repository].
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Assignment, error) {
	table := schema.StudioAssignment
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(table.Columns(), ", "), table.Table, table.ID,
	)

	assignment, err := scanAssignment(repository.pool.QueryRow(context, query, id), nil)
	if err != nil {
		return nil, dberr.Wrap(err, "find assignment")
	}
	return assignment, nil
}

/*
Update implements [Repository].

Description: The WHERE clause pins the expected status, so two members acting
on the same assignment cannot both win. When no row matches, a second lookup
tells a missing row apart from a stale one.
*/
func (repository *PostgresRepository) Update(context context.Context, assignment *Assignment, expected Status) error {
	table := schema.StudioAssignment

	// Everything but the identity columns and createdat/createdby is mutable.
	mutable := []string{
		table.AssigneeID, table.Status, table.Progress, table.DueDate, table.DriveLink,
		table.RawLink, table.Notes, table.ReviewerID, table.ReviewedAt, table.ReviewComment,
		table.ApprovedBy, table.ApprovedAt, table.CompletedAt, table.UploadedAt, table.UploadedBy,
		table.UpdatedAt,
	}
	assignments := make([]string, len(mutable))
	for i, column := range mutable {
		assignments[i] = fmt.Sprintf("%s = $%d", column, i+3)
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $1 AND %s = $2`,
		table.Table, strings.Join(assignments, ", "), table.ID, table.Status,
	)

	args := []any{
		assignment.ID, string(expected),
		assignment.AssigneeID, string(assignment.Status), assignment.Progress, assignment.DueDate, assignment.DriveLink,
		assignment.RawLink, assignment.Notes, assignment.ReviewerID, assignment.ReviewedAt, assignment.ReviewComment,
		assignment.ApprovedBy, assignment.ApprovedAt, assignment.CompletedAt, assignment.UploadedAt, assignment.UploadedBy,
		assignment.UpdatedAt,
	}

	tag, err := repository.pool.Exec(context, query, args...)
	if err != nil {
		return dberr.Wrap(err, "update assignment")
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	if _, err := repository.FindByID(context, assignment.ID); err != nil {
		return err
	}
	return ErrStale
}

// Delete implements [Repository].
func (repository *PostgresRepository) Delete(context context.Context, id string) (bool, error) {
	table := schema.StudioAssignment
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ID)

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return false, dberr.Wrap(err, "delete assignment")
	}
	return tag.RowsAffected() > 0, nil
}

/*
List returns a filtered, paginated slice of assignments and the total count.

Description: Ordered by manga title, numeric chapter and pipeline order of the
task type, so sibling tasks of a chapter come out together.
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter, limit, offset int) ([]*Assignment, int, error) {
	table := schema.StudioAssignment
	where, args := whereClause(filter)

	query := fmt.Sprintf(`
		SELECT %[1]s, COUNT(*) OVER() AS total_count
		FROM %[2]s
		%[3]s
		ORDER BY %[4]s ASC, replace(%[5]s, '_', '.')::numeric ASC, array_position($%[7]d::text[], %[6]s) ASC
		LIMIT $%[8]d OFFSET $%[9]d`,
		strings.Join(table.Columns(), ", "), table.Table, where,
		table.MangaTitle, table.ChapterKey, table.TaskType,
		len(args)+1, len(args)+2, len(args)+3,
	)
	args = append(args, manga.TaskTypeStrings(), limit, offset)

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list assignments")
	}
	defer rows.Close()

	var assignments []*Assignment
	total := 0
	for rows.Next() {
		assignment, err := scanAssignment(rows, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan assignment")
		}
		assignments = append(assignments, assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "iterate assignments")
	}
	return assignments, total, nil
}

// Stats implements [Repository].
func (repository *PostgresRepository) Stats(context context.Context, filter Filter, now time.Time) (Stats, error) {
	table := schema.StudioAssignment
	where, args := whereClause(filter)

	query := fmt.Sprintf(`
		SELECT %[1]s,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE %[2]s < $%[6]d AND %[1]s = ANY($%[7]d::text[])),
		       COUNT(*) FILTER (WHERE %[3]s > %[2]s AND %[1]s = ANY($%[8]d::text[]))
		FROM %[4]s
		%[5]s
		GROUP BY %[1]s`,
		table.Status, table.DueDate, table.CompletedAt, table.Table, where,
		len(args)+1, len(args)+2, len(args)+3,
	)
	args = append(args, now,
		[]string{string(StatusUnassigned), string(StatusPending), string(StatusInProgress)},
		[]string{string(StatusCompleted), string(StatusApproved), string(StatusUploaded)},
	)

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return Stats{}, dberr.Wrap(err, "assignment stats")
	}
	defer rows.Close()

	stats := Stats{ByStatus: make(map[Status]int, len(Statuses))}
	for rows.Next() {
		var status string
		var count, delayed, late int
		if err := rows.Scan(&status, &count, &delayed, &late); err != nil {
			return Stats{}, dberr.Wrap(err, "scan assignment stats")
		}
		stats.ByStatus[Status(status)] = count
		stats.Total += count
		stats.Delayed += delayed
		stats.CompletedLate += late
	}

	if err := rows.Err(); err != nil {
		return Stats{}, dberr.Wrap(err, "iterate assignment stats")
	}
	return stats, nil
}

// # Helpers

// whereClause renders filter starting at $1.
func whereClause(filter Filter) (string, []any) {
	table := schema.StudioAssignment

	var conditions []string
	var args []any

	add := func(format string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if filter.AssigneeID != "" {
		add(table.AssigneeID+" = $%d", filter.AssigneeID)
	}
	if filter.MangaID != "" {
		add(table.MangaID+" = $%d", filter.MangaID)
	}
	if filter.Chapter != "" {
		add(table.ChapterKey+" = $%d", manga.EncodeChapterNumber(filter.Chapter))
	}
	if filter.TaskType != "" {
		add(table.TaskType+" = $%d", string(filter.TaskType))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			statuses[i] = string(status)
		}
		add(table.Status+" = ANY($%d::text[])", statuses)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func values(assignment *Assignment) []any {
	return []any{
		assignment.ID, assignment.MangaID, assignment.MangaTitle, assignment.ChapterKey(),
		string(assignment.TaskType), assignment.AssigneeID, string(assignment.Status), assignment.Progress,
		assignment.DueDate, assignment.DriveLink, assignment.RawLink, assignment.Notes,
		assignment.ReviewerID, assignment.ReviewedAt, assignment.ReviewComment, assignment.ApprovedBy,
		assignment.ApprovedAt, assignment.CompletedAt, assignment.UploadedAt, assignment.UploadedBy,
		assignment.CreatedBy, assignment.CreatedAt, assignment.UpdatedAt,
	}
}

func scanAssignment(row pgx.Row, total *int) (*Assignment, error) {
	var assignment Assignment
	var chapterKey, taskType, status string

	dest := []any{
		&assignment.ID, &assignment.MangaID, &assignment.MangaTitle, &chapterKey,
		&taskType, &assignment.AssigneeID, &status, &assignment.Progress,
		&assignment.DueDate, &assignment.DriveLink, &assignment.RawLink, &assignment.Notes,
		&assignment.ReviewerID, &assignment.ReviewedAt, &assignment.ReviewComment, &assignment.ApprovedBy,
		&assignment.ApprovedAt, &assignment.CompletedAt, &assignment.UploadedAt, &assignment.UploadedBy,
		&assignment.CreatedBy, &assignment.CreatedAt, &assignment.UpdatedAt,
	}
	if total != nil {
		dest = append(dest, total)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	assignment.Chapter = manga.DecodeChapterNumber(chapterKey)
	assignment.TaskType = manga.TaskType(taskType)
	assignment.Status = Status(status)
	return &assignment, nil
}

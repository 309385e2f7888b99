// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manga

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-studio/internal/platform/database/schema"
	"github.com/taibuivan/yomira-studio/internal/platform/dberr"
)

// # PostgreSQL Repository

// PostgresRepository implements [Repository] on studio.manga and studio.chapter.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed manga store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ## Mangas

/*
List returns a filtered, paginated slice of mangas and the total count.

Description: Uses COUNT(*) OVER() to get the total without a second query.

Parameters:
  - context: context.Context
  - filter: Filter (Search, Joint)
  - limit: int
  - offset: int

Returns:
  - []*Manga: Page of mangas ordered by title
  - int: Total count matching filters
  - error: Database execution errors
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter, limit, offset int) ([]*Manga, int, error) {
	table := schema.StudioManga

	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf(`SELECT %s, COUNT(*) OVER() AS total_count FROM %s WHERE TRUE`,
		strings.Join(table.Columns(), ", "), table.Table,
	))

	// Title search
	if search := strings.TrimSpace(filter.Search); search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s ILIKE $%d", table.Title, argID))
		args = append(args, "%"+search+"%")
		argID++
	}

	// Joint collaboration flag
	if filter.Joint != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", table.IsJoint, argID))
		args = append(args, *filter.Joint)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s ASC LIMIT $%d OFFSET $%d", table.Title, argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.pool.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list mangas")
	}
	defer rows.Close()

	var mangas []*Manga
	total := 0
	for rows.Next() {
		manga, err := scanManga(rows, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan manga")
		}
		mangas = append(mangas, manga)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "iterate mangas")
	}
	return mangas, total, nil
}

// FindByID implements [Repository].
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Manga, error) {
	table := schema.StudioManga
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(table.Columns(), ", "), table.Table, table.ID,
	)

	manga, err := scanManga(repository.pool.QueryRow(context, query, id), nil)
	if err != nil {
		return nil, dberr.Wrap(err, "find manga")
	}
	return manga, nil
}

// Create implements [Repository].
func (repository *PostgresRepository) Create(context context.Context, manga *Manga) error {
	table := schema.StudioManga
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		table.Table, strings.Join(table.Columns(), ", "),
	)

	_, err := repository.pool.Exec(context, query,
		manga.ID, manga.Title, manga.Slug, manga.CoverURL, manga.IsJoint, manga.JointGroup,
		taskTypeStrings(manga.AllowedTaskTypes), manga.TotalChapters, manga.PublishedChapterCount,
		manga.CreatedBy, manga.CreatedAt, manga.UpdatedAt,
	)
	return dberr.Wrap(err, "insert manga")
}

// Update implements [Repository]. The slug and counters are not touched.
func (repository *PostgresRepository) Update(context context.Context, manga *Manga) error {
	table := schema.StudioManga
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8
		WHERE %s = $1`,
		table.Table,
		table.Title, table.CoverURL, table.IsJoint, table.JointGroup,
		table.AllowedTaskTypes, table.TotalChapters, table.UpdatedAt,
		table.ID,
	)

	tag, err := repository.pool.Exec(context, query,
		manga.ID, manga.Title, manga.CoverURL, manga.IsJoint, manga.JointGroup,
		taskTypeStrings(manga.AllowedTaskTypes), manga.TotalChapters, manga.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "update manga")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// Recount implements [Repository].
func (repository *PostgresRepository) Recount(context context.Context, mangaID string, at time.Time) error {
	_, err := repository.pool.Exec(context, recountQuery(" AND m.%s = $2"), at, mangaID)
	return dberr.Wrap(err, "recount manga chapters")
}

// ## Chapters

// ListChapters implements [Repository]. Chapters are ordered numerically.
func (repository *PostgresRepository) ListChapters(context context.Context, mangaID string) ([]*Chapter, error) {
	table := schema.StudioChapter
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY replace(%s, '_', '.')::numeric ASC`,
		strings.Join(table.Columns(), ", "), table.Table, table.MangaID, table.ChapterKey,
	)

	rows, err := repository.pool.Query(context, query, mangaID)
	if err != nil {
		return nil, dberr.Wrap(err, "list chapters")
	}
	defer rows.Close()

	var chapters []*Chapter
	for rows.Next() {
		chapter, err := scanChapter(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan chapter")
		}
		chapters = append(chapters, chapter)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "iterate chapters")
	}
	return chapters, nil
}

// FindChapter implements [Repository].
func (repository *PostgresRepository) FindChapter(context context.Context, mangaID, key string) (*Chapter, error) {
	table := schema.StudioChapter
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		strings.Join(table.Columns(), ", "), table.Table, table.MangaID, table.ChapterKey,
	)

	chapter, err := scanChapter(repository.pool.QueryRow(context, query, mangaID, key))
	if err != nil {
		return nil, dberr.Wrap(err, "find chapter")
	}
	return chapter, nil
}

// SaveChapter implements [Repository].
func (repository *PostgresRepository) SaveChapter(context context.Context, chapter *Chapter) error {
	table := schema.StudioChapter
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (%[3]s, %[4]s) DO UPDATE
		SET %[5]s = EXCLUDED.%[5]s, %[6]s = EXCLUDED.%[6]s, %[7]s = EXCLUDED.%[7]s,
		    %[8]s = EXCLUDED.%[8]s, %[9]s = EXCLUDED.%[9]s, %[10]s = EXCLUDED.%[10]s,
		    %[11]s = EXCLUDED.%[11]s`,
		table.Table, strings.Join(table.Columns(), ", "),
		table.MangaID, table.ChapterKey,
		table.Title, table.RawLink, table.PublicationStatus, table.UploadLink,
		table.PublishedAt, table.PublishedBy, table.UpdatedAt,
	)

	_, err := repository.pool.Exec(context, query,
		chapter.MangaID, chapter.Key, chapter.Title, chapter.RawLink, string(chapter.Status),
		chapter.UploadLink, chapter.PublishedAt, chapter.PublishedBy, chapter.CreatedAt, chapter.UpdatedAt,
	)
	return dberr.Wrap(err, "save chapter")
}

// MarkInWork implements [Repository].
func (repository *PostgresRepository) MarkInWork(context context.Context, mangaID, key string, at time.Time) error {
	table := schema.StudioChapter
	query := fmt.Sprintf(`
		INSERT INTO %[1]s AS c (%[2]s, %[3]s, %[4]s, %[5]s, %[6]s)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (%[2]s, %[3]s) DO UPDATE
		SET %[4]s = EXCLUDED.%[4]s, %[6]s = EXCLUDED.%[6]s
		WHERE c.%[4]s = $5`,
		table.Table, table.MangaID, table.ChapterKey, table.PublicationStatus, table.CreatedAt, table.UpdatedAt,
	)

	_, err := repository.pool.Exec(context, query, mangaID, key, string(PublicationInWork), at, string(PublicationNone))
	return dberr.Wrap(err, "mark chapter in work")
}

// Publish implements [Repository].
func (repository *PostgresRepository) Publish(context context.Context, mangaID, key string, uploadLink *string, publishedBy string, at time.Time) (bool, error) {
	tx, err := repository.pool.Begin(context)
	if err != nil {
		return false, dberr.Wrap(err, "begin publish")
	}
	defer tx.Rollback(context)

	table := schema.StudioChapter
	query := fmt.Sprintf(`
		INSERT INTO %[1]s AS c (%[2]s, %[3]s, %[4]s, %[5]s, %[6]s, %[7]s, %[8]s, %[9]s)
		VALUES ($1, $2, $3, $4, $5, $6, $4, $4)
		ON CONFLICT (%[2]s, %[3]s) DO UPDATE
		SET %[4]s = EXCLUDED.%[4]s,
		    %[5]s = COALESCE(c.%[5]s, EXCLUDED.%[5]s),
		    %[6]s = COALESCE(c.%[6]s, EXCLUDED.%[6]s),
		    %[7]s = COALESCE(EXCLUDED.%[7]s, c.%[7]s),
		    %[9]s = EXCLUDED.%[9]s
		WHERE c.%[4]s <> EXCLUDED.%[4]s`,
		table.Table, table.MangaID, table.ChapterKey, table.PublicationStatus,
		table.PublishedAt, table.PublishedBy, table.UploadLink, table.CreatedAt, table.UpdatedAt,
	)

	tag, err := tx.Exec(context, query, mangaID, key, string(PublicationPublished), at, publishedBy, uploadLink)
	if err != nil {
		return false, dberr.Wrap(err, "publish chapter")
	}
	changed := tag.RowsAffected() > 0

	if changed {
		if _, err := tx.Exec(context, recountQuery(" AND m.%s = $2"), at, mangaID); err != nil {
			return false, dberr.Wrap(err, "recount manga chapters")
		}
	}

	if err := tx.Commit(context); err != nil {
		return false, dberr.Wrap(err, "commit publish")
	}
	return changed, nil
}

/*
Repair recomputes chapter publication state from assignment history.

Description: Runs in one transaction:
  - Chapters with an uploaded assignment become published.
  - Chapters with other assignments move from none to in_work.
  - Manga counters are recounted where they drifted.

Parameters:
  - context: context.Context
  - at: time.Time (timestamp written on touched rows)

Returns:
  - RepairReport: Per-step change counts
  - error: Database execution errors
*/
func (repository *PostgresRepository) Repair(context context.Context, at time.Time) (RepairReport, error) {
	var report RepairReport

	tx, err := repository.pool.Begin(context)
	if err != nil {
		return report, dberr.Wrap(err, "begin repair")
	}
	defer tx.Rollback(context)

	chapter := schema.StudioChapter
	assignment := schema.StudioAssignment

	// 1. Uploaded assignments publish their chapter
	publishQuery := fmt.Sprintf(`
		INSERT INTO %[1]s AS c (%[2]s, %[3]s, %[4]s, %[5]s, %[6]s, %[7]s, %[8]s)
		SELECT a.%[10]s, a.%[11]s, $2, MIN(a.%[13]s), MIN(a.%[14]s), $1::timestamptz, $1::timestamptz
		FROM %[9]s a
		WHERE a.%[12]s = $3
		GROUP BY a.%[10]s, a.%[11]s
		ON CONFLICT (%[2]s, %[3]s) DO UPDATE
		SET %[4]s = EXCLUDED.%[4]s,
		    %[5]s = COALESCE(c.%[5]s, EXCLUDED.%[5]s),
		    %[6]s = COALESCE(c.%[6]s, EXCLUDED.%[6]s),
		    %[8]s = EXCLUDED.%[8]s
		WHERE c.%[4]s <> EXCLUDED.%[4]s`,
		chapter.Table, chapter.MangaID, chapter.ChapterKey, chapter.PublicationStatus,
		chapter.PublishedAt, chapter.PublishedBy, chapter.CreatedAt, chapter.UpdatedAt,
		assignment.Table, assignment.MangaID, assignment.ChapterKey, assignment.Status,
		assignment.UploadedAt, assignment.UploadedBy,
	)

	tag, err := tx.Exec(context, publishQuery, at, string(PublicationPublished), "uploaded")
	if err != nil {
		return report, dberr.Wrap(err, "repair published chapters")
	}
	report.ChaptersPublished = int(tag.RowsAffected())

	// 2. Open assignments mark untouched chapters as in work
	inWorkQuery := fmt.Sprintf(`
		INSERT INTO %[1]s AS c (%[2]s, %[3]s, %[4]s, %[5]s, %[6]s)
		SELECT DISTINCT a.%[8]s, a.%[9]s, $2, $1::timestamptz, $1::timestamptz
		FROM %[7]s a
		WHERE a.%[10]s <> $3
		ON CONFLICT (%[2]s, %[3]s) DO UPDATE
		SET %[4]s = EXCLUDED.%[4]s, %[6]s = EXCLUDED.%[6]s
		WHERE c.%[4]s = $4`,
		chapter.Table, chapter.MangaID, chapter.ChapterKey, chapter.PublicationStatus,
		chapter.CreatedAt, chapter.UpdatedAt,
		assignment.Table, assignment.MangaID, assignment.ChapterKey, assignment.Status,
	)

	tag, err = tx.Exec(context, inWorkQuery, at, string(PublicationInWork), "uploaded", string(PublicationNone))
	if err != nil {
		return report, dberr.Wrap(err, "repair in-work chapters")
	}
	report.ChaptersInWork = int(tag.RowsAffected())

	// 3. Denormalized counters
	tag, err = tx.Exec(context, recountQuery(""), at)
	if err != nil {
		return report, dberr.Wrap(err, "recount mangas")
	}
	report.MangasRecounted = int(tag.RowsAffected())

	if err := tx.Commit(context); err != nil {
		return report, dberr.Wrap(err, "commit repair")
	}
	return report, nil
}

// # Helpers

// recountQuery refreshes publishedchaptercount and raises totalchapters to the
// number of known chapters. extra is an optional filter with one %s for the id
// column; $1 is always the update timestamp.
func recountQuery(extra string) string {
	manga := schema.StudioManga
	chapter := schema.StudioChapter

	filter := ""
	if extra != "" {
		filter = fmt.Sprintf(extra, manga.ID)
	}

	return fmt.Sprintf(`
		UPDATE %[1]s AS m
		SET %[2]s = s.published, %[3]s = GREATEST(m.%[3]s, s.total), %[4]s = $1
		FROM (
			SELECT %[6]s AS mangaid, COUNT(*) AS total,
			       COUNT(*) FILTER (WHERE %[7]s = 'published') AS published
			FROM %[5]s
			GROUP BY %[6]s
		) s
		WHERE m.%[8]s = s.mangaid
		  AND (m.%[2]s <> s.published OR m.%[3]s < s.total)%[9]s`,
		manga.Table, manga.PublishedChapterCount, manga.TotalChapters, manga.UpdatedAt,
		chapter.Table, chapter.MangaID, chapter.PublicationStatus,
		manga.ID, filter,
	)
}

func scanManga(row pgx.Row, total *int) (*Manga, error) {
	var manga Manga
	var taskTypes []string

	dest := []any{
		&manga.ID, &manga.Title, &manga.Slug, &manga.CoverURL, &manga.IsJoint, &manga.JointGroup,
		&taskTypes, &manga.TotalChapters, &manga.PublishedChapterCount, &manga.CreatedBy,
		&manga.CreatedAt, &manga.UpdatedAt,
	}
	if total != nil {
		dest = append(dest, total)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	manga.AllowedTaskTypes = make([]TaskType, 0, len(taskTypes))
	for _, taskType := range taskTypes {
		manga.AllowedTaskTypes = append(manga.AllowedTaskTypes, TaskType(taskType))
	}
	return &manga, nil
}

func scanChapter(row pgx.Row) (*Chapter, error) {
	var chapter Chapter
	var status string

	err := row.Scan(
		&chapter.MangaID, &chapter.Key, &chapter.Title, &chapter.RawLink, &status,
		&chapter.UploadLink, &chapter.PublishedAt, &chapter.PublishedBy,
		&chapter.CreatedAt, &chapter.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	chapter.Number = DecodeChapterNumber(chapter.Key)
	chapter.Status = PublicationStatus(status)
	return &chapter, nil
}

func taskTypeStrings(taskTypes []TaskType) []string {
	out := make([]string, len(taskTypes))
	for i, taskType := range taskTypes {
		out[i] = string(taskType)
	}
	return out
}

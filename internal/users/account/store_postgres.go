// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-studio/internal/platform/database/schema"
	"github.com/taibuivan/yomira-studio/internal/platform/dberr"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
)

// PostgresRepository implements [Repository] on users.account.
// Soft-deleted rows are invisible to every method.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates the directory store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create implements [Repository].
func (repository *PostgresRepository) Create(context context.Context, user *User, passwordHash string) error {
	table := schema.UserAccount
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		table.Table,
		table.ID, table.Username, table.Email, table.Password, table.Role,
		table.DisplayName, table.AvatarURL, table.IsActive, table.CreatedAt, table.UpdatedAt,
	)

	_, err := repository.pool.Exec(context, query,
		user.ID, user.Username, user.Email, passwordHash, string(user.Role),
		user.DisplayName, user.AvatarURL, user.IsActive, user.CreatedAt, user.UpdatedAt,
	)
	return dberr.Wrap(err, "insert account")
}

// FindByID implements [Repository].
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*User, error) {
	table := schema.UserAccount
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL`,
		strings.Join(table.Columns(), ", "), table.Table, table.ID, table.DeletedAt,
	)

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "find account")
	}
	return user, nil
}

// FindCredentials implements [Repository].
func (repository *PostgresRepository) FindCredentials(context context.Context, login string) (*User, string, error) {
	table := schema.UserAccount
	query := fmt.Sprintf(`
		SELECT %s, %s FROM %s
		WHERE (LOWER(%s) = LOWER($1) OR LOWER(%s) = LOWER($1)) AND %s IS NULL
		LIMIT 1`,
		strings.Join(table.Columns(), ", "), table.Password, table.Table,
		table.Username, table.Email, table.DeletedAt,
	)

	var hash string
	user, err := scanUser(repository.pool.QueryRow(context, query, login), &hash)
	if err != nil {
		return nil, "", dberr.Wrap(err, "find credentials")
	}
	return user, hash, nil
}

/*
List implements [Repository].

Description: Filters by role, status and a case-insensitive search over
username, email and display name. Ordered by username.
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter, limit, offset int) ([]*User, int, error) {
	table := schema.UserAccount

	conditions := []string{table.DeletedAt + " IS NULL"}
	args := []any{}
	next := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Role != "" {
		conditions = append(conditions, fmt.Sprintf("%s = %s", table.Role, next(string(filter.Role))))
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("%s = %s", table.IsActive, next(*filter.Active)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		placeholder := next("%" + strings.ToLower(search) + "%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(%s) LIKE %[4]s OR LOWER(%[2]s) LIKE %[4]s OR LOWER(%[3]s) LIKE %[4]s)",
			table.Username, table.Email, table.DisplayName, placeholder))
	}

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s
		ORDER BY LOWER(%s)
		LIMIT %s OFFSET %s`,
		strings.Join(table.Columns(), ", "), table.Table,
		strings.Join(conditions, " AND "), table.Username,
		next(limit), next(offset),
	)

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list accounts")
	}
	defer rows.Close()

	var users []*User
	total := 0
	for rows.Next() {
		user, err := scanUser(rows, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan account")
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "iterate accounts")
	}
	return users, total, nil
}

// UpdateRole implements [Repository].
func (repository *PostgresRepository) UpdateRole(context context.Context, id string, role sec.UserRole, at time.Time) error {
	table := schema.UserAccount
	return repository.update(context, "update account role",
		fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1 AND %s IS NULL`,
			table.Table, table.Role, table.UpdatedAt, table.ID, table.DeletedAt),
		id, string(role), at,
	)
}

// UpdateStatus implements [Repository].
func (repository *PostgresRepository) UpdateStatus(context context.Context, id string, active bool, at time.Time) error {
	table := schema.UserAccount
	return repository.update(context, "update account status",
		fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1 AND %s IS NULL`,
			table.Table, table.IsActive, table.UpdatedAt, table.ID, table.DeletedAt),
		id, active, at,
	)
}

// TouchLogin implements [Repository].
func (repository *PostgresRepository) TouchLogin(context context.Context, id string, at time.Time) error {
	table := schema.UserAccount
	return repository.update(context, "touch account login",
		fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1 AND %s IS NULL`,
			table.Table, table.LastLoginAt, table.ID, table.DeletedAt),
		id, at,
	)
}

func (repository *PostgresRepository) update(context context.Context, action, query string, args ...any) error {
	tag, err := repository.pool.Exec(context, query, args...)
	if err != nil {
		return dberr.Wrap(err, action)
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// scanUser reads the columns of [schema.UserAccountTable.Columns] followed by
// any extra destinations.
func scanUser(row pgx.Row, extra ...any) (*User, error) {
	var user User
	var role string

	dest := []any{
		&user.ID, &user.Username, &user.Email, &role, &user.DisplayName, &user.AvatarURL,
		&user.IsActive, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	user.Role = sec.UserRole(role)
	return &user, nil
}

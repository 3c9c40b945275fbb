package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
)

// DB is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx, so every
// repository runs unchanged inside or outside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// wrapErr converts a pgx error into the repository error taxonomy.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return utils.ErrRecordNotFound
	}
	return &utils.StorageError{Op: op, Err: err}
}

// execDelete runs a DELETE that must hit exactly one row.
func execDelete(ctx context.Context, db DB, op, sql string, args ...any) error {
	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return wrapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrRecordNotFound
	}
	return nil
}

// execDeleteAny runs a DELETE for which zero matched rows is fine.
func execDeleteAny(ctx context.Context, db DB, op, sql string, args ...any) error {
	_, err := db.Exec(ctx, sql, args...)
	return wrapErr(op, err)
}

// withLimit appends a LIMIT clause when limit is positive.
func withLimit(query string, limit int) (string, []any) {
	if limit > 0 {
		return query + " LIMIT $2", []any{limit}
	}
	return query, nil
}

func queryAll[T any](ctx context.Context, db DB, op, sql string, scan func(pgx.Row) (*T, error), args ...any) ([]*T, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return out, nil
}

// timestamptzPtr maps a nullable TIMESTAMPTZ column onto a *time.Time.
func timestamptzPtr(v pgtype.Timestamptz) *time.Time {
	if v.Status != pgtype.Present {
		return nil
	}
	t := v.Time
	return &t
}

// datePtr maps a nullable DATE column onto a *time.Time.
func datePtr(v pgtype.Date) *time.Time {
	if v.Status != pgtype.Present {
		return nil
	}
	t := v.Time
	return &t
}

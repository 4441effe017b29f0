package store

import (
	"context"
)

// Scalar reads the first column of the first row into T
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (T, error) {
	var v T
	err := q.QueryRow(ctx, sql, args...).Scan(&v)
	return v, err
}

// Many maps every row through scan
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// First maps the first row through scan. ok is false when the result is empty
func First[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (item T, ok bool, err error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return item, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return item, false, rows.Err()
	}
	if item, err = scan(rows); err != nil {
		return item, false, err
	}
	return item, true, nil
}

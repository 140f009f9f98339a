package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScanFunc[T any] func(row pgx.Row) (*T, error)

func QueryMany[T any](
	ctx context.Context,
	pool *pgxpool.Pool,
	query string,
	scanFunc ScanFunc[T],
	args ...any,
) ([]*T, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*T
	for rows.Next() {
		item, err := scanFunc(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	return results, rows.Err()
}

// QueryOne returns nil, nil when the query matches no row.
func QueryOne[T any](
	ctx context.Context,
	pool *pgxpool.Pool,
	query string,
	scanFunc ScanFunc[T],
	args ...any,
) (*T, error) {
	item, err := scanFunc(pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is the surface *pgxpool.Pool and pgx.Tx share
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// sqlQuerier narrows pgx results to the store seams
type sqlQuerier struct{ q pgxQuerier }

func (s sqlQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return s.q.Exec(ctx, sql, args...)
}

func (s sqlQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rs, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func (s sqlQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return s.q.QueryRow(ctx, sql, args...)
}

// pgSeam is the TxRunner over a pool. Statement logging lives on the pool's
// tracer so queries inside transactions are covered too
type pgSeam struct {
	sqlQuerier
	pool *pgxpool.Pool
}

func newPGSeam(pool *pgxpool.Pool) *pgSeam {
	return &pgSeam{sqlQuerier: sqlQuerier{q: pool}, pool: pool}
}

// Tx commits when fn returns nil and rolls back otherwise
func (p *pgSeam) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(sqlQuerier{q: tx})
	})
}

func (p *pgSeam) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *pgSeam) Close() error {
	p.pool.Close()
	return nil
}

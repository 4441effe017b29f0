// Package store opens the optional storage backends (postgres, clickhouse,
// mongo) and exposes them as small seams repos bind against
package store

import (
	"context"
	"errors"
	"fmt"

	"garden/internal/platform/logger"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Store holds whichever backends this process enabled. Disabled ones stay nil
type Store struct {
	Log logger.Logger

	PG    TxRunner
	CH    Clickhouse
	Mongo Document
}

// Row is a single result row
type Row interface {
	Scan(dest ...any) error
}

// Rows is a forward-only result set. pgx.Rows and driver.Rows both fit
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// CommandTag reports what a statement did
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is what sql repos are written against
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner is a RowQuerier that can also run fn inside one transaction
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is the export seam: batch inserts plus plain statements
type Clickhouse interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

// Document is the seam for the document backend. Repos work on the
// driver's collection API directly, there is no query abstraction here
type Document interface {
	DB() *mongo.Database
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Pinger is implemented by every seam that can check its connection
type Pinger interface{ Ping(context.Context) error }

// Option tweaks a Store before any backend is opened
type Option func(*Store)

// WithLogger hands l to the backend clients
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.Log = l }
}

// Open connects every backend enabled in cfg. On failure the backends
// already opened are closed again
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		o(s)
	}

	var err error
	if cfg.PG.Enabled {
		if s.PG, err = openPG(ctx, cfg.PG, s); err != nil {
			return nil, fmt.Errorf("pg: %w", err)
		}
	}
	if cfg.CH.Enabled {
		if s.CH, err = openCH(ctx, cfg, s); err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("ch: %w", err)
		}
	}
	if cfg.Mongo.Enabled {
		if s.Mongo, err = openMongo(ctx, cfg); err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("mongo: %w", err)
		}
	}
	return s, nil
}

func (s *Store) seams() map[string]any {
	out := map[string]any{}
	if s.PG != nil {
		out["pg"] = s.PG
	}
	if s.CH != nil {
		out["ch"] = s.CH
	}
	if s.Mongo != nil {
		out["mongo"] = s.Mongo
	}
	return out
}

// Guard pings every open backend and joins the failures
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	for name, seam := range s.seams() {
		p, ok := seam.(Pinger)
		if !ok {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Close releases every open backend. Safe on a zero Store
func (s *Store) Close(ctx context.Context) error {
	var errs []error
	if s.CH != nil {
		errs = append(errs, s.CH.Close())
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	if s.Mongo != nil {
		errs = append(errs, s.Mongo.Close(ctx))
	}
	return errors.Join(errs...)
}

// Package pg opens the pgx pool behind the store's sql seam
package pg

import (
	"context"
	"fmt"
	"time"

	"garden/internal/platform/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures the pool and its statement log
type Config struct {
	URL      string
	MaxConns int32
	// Slow logs statements at or above this duration at warn, 0 disables
	Slow time.Duration
	// LogSQL logs every statement at debug
	LogSQL bool
}

var newPool = pgxpool.NewWithConfig

// Open builds the pool. Connections are dialed lazily, call Ping to wait for
// the server
func Open(ctx context.Context, cfg Config, log logger.Logger) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("pg: parse url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.LogSQL || cfg.Slow > 0 {
		pcfg.ConnConfig.Tracer = newTracer(log, cfg)
	}
	return newPool(ctx, pcfg)
}

// Pinger is satisfied by *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping retries p with exponential backoff until it answers, ctx ends or
// attempts run out. Each try gets its own timeout
func Ping(ctx context.Context, p Pinger, attempts int, timeout time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 150 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0

	tries := 0
	err := backoff.Retry(func() error {
		tries++
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return p.Ping(pctx)
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(attempts-1, 0))), ctx))
	if err != nil {
		return fmt.Errorf("pg: ping failed after %d attempts: %w", tries, err)
	}
	return nil
}

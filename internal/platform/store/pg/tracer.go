package pg

import (
	"context"
	"strings"
	"time"

	"garden/internal/platform/logger"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// tracer logs statements through pgx's query tracing hooks
type tracer struct {
	log  logger.Logger
	slow time.Duration
	all  bool
}

func newTracer(log logger.Logger, cfg Config) *tracer {
	l := log.With().Str("component", "pg").Logger()
	if cfg.LogSQL {
		// statement logging is opt in and must not depend on the process level
		l = l.Level(zerolog.DebugLevel)
	}
	return &tracer{log: l, slow: cfg.Slow, all: cfg.LogSQL}
}

type queryKey struct{}

type started struct {
	sql string
	at  time.Time
}

func (t *tracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, d pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryKey{}, started{sql: d.SQL, at: time.Now()})
}

func (t *tracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, d pgx.TraceQueryEndData) {
	s, ok := ctx.Value(queryKey{}).(started)
	if !ok {
		return
	}
	t.record(s.sql, time.Since(s.at), d.CommandTag.RowsAffected(), d.Err)
}

func (t *tracer) record(sql string, elapsed time.Duration, rows int64, err error) {
	var evt *zerolog.Event
	switch {
	case err != nil:
		evt = t.log.Warn().Err(err)
	case t.slow > 0 && elapsed >= t.slow:
		evt = t.log.Warn().Bool("slow", true)
	case t.all:
		evt = t.log.Debug()
	default:
		return
	}
	evt.Str("sql", strings.Join(strings.Fields(sql), " ")).
		Int64("rows", rows).
		Dur("elapsed", elapsed).
		Msg("pg query")
}

// Package service provides the dump migration pipeline
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	perr "garden/internal/platform/errors"
	"garden/internal/platform/logger"
	"garden/internal/platform/metrics"
	msgdom "garden/internal/services/messages/domain"
	"garden/internal/services/migrate/domain"
	"garden/internal/services/migrate/guardrails"
)

// Config holds configuration options for the migration service
type Config struct {
	BatchSize int // records per transaction; <=0 -> 1000

	// Batch-level retry; attempts <=1 disables retries
	MaxRetries int
	RetryBase  time.Duration // <=0 -> 500ms

	// Timeouts applied via guardrails
	ReadTimeout  time.Duration
	BatchTimeout time.Duration

	// Lease guards the target against a concurrent run (pg only)
	EnableLeases bool
	LeaseTTL     time.Duration

	SampleRows int  // rows shown in the summary; <0 -> none
	DryRun     bool // read and normalize only
}

// Service implements the migration pipeline
type Service struct {
	Store   msgdom.Store
	Source  domain.Source
	Norm    domain.Normalizer
	Cfg     Config
	Metrics *metrics.Manager

	// Lease(ctx, target, ttl, do) claims the target and runs do
	Lease domain.Lease

	// Target names the store namespace for leases and logs
	Target string

	// Out receives human readable progress lines; nil discards them
	Out io.Writer
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the migration service
func New(store msgdom.Store, src domain.Source, norm domain.Normalizer, cfg Config) *Service {
	if store == nil {
		panic("migrate.Service requires a non nil Store")
	}
	if src == nil {
		panic("migrate.Service requires a non nil Source")
	}
	if norm == nil {
		panic("migrate.Service requires a non nil Normalizer")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	return &Service{Store: store, Source: src, Norm: norm, Cfg: cfg, Target: store.Backend()}
}

// Run migrates one dump file into the store
// It aborts before writing when the file or the target namespace is missing
func (s *Service) Run(ctx context.Context, path string) (Summary, error) {
	runID := uuid.NewString()
	ctx = logger.WithRun(ctx, runID)
	started := time.Now()

	sum := Summary{RunID: runID, Source: path, Backend: s.Store.Backend(), DryRun: s.Cfg.DryRun}

	tos := guardrails.Timeouts{Read: s.Cfg.ReadTimeout, Batch: s.Cfg.BatchTimeout}
	runCtx, cancel := guardrails.WithRun(ctx, tos)
	defer cancel()

	rd, err := s.Source.Open(path)
	if err != nil {
		return sum, err
	}
	defer func() { _ = rd.Close() }()

	if err := s.Store.Ready(runCtx); err != nil {
		return sum, err
	}

	run := func(ctx context.Context) error {
		recs, err := s.read(ctx, tos, rd, &sum)
		if err != nil {
			return err
		}
		sum.Total = len(recs)
		if s.Cfg.DryRun {
			s.printf("dry run: %d records normalized, nothing written\n", len(recs))
			return nil
		}
		return s.write(ctx, tos, recs, &sum)
	}

	if s.Lease != nil && s.Cfg.EnableLeases && !s.Cfg.DryRun {
		err = s.Lease(runCtx, s.Target, s.Cfg.LeaseTTL, run)
	} else {
		err = run(runCtx)
	}
	if err != nil {
		return sum, err
	}

	if err := s.finish(runCtx, &sum); err != nil {
		return sum, err
	}
	sum.Elapsed = time.Since(started)

	logger.C(ctx).Info().
		Str("source", path).
		Str("backend", sum.Backend).
		Int("read", sum.Read).
		Int("skipped", sum.Skipped).
		Int("total", sum.Total).
		Int("inserted", sum.Inserted).
		Int64("final_count", sum.FinalCount).
		Dur("elapsed", sum.Elapsed).
		Msg("migrate: done")
	return sum, nil
}

// Summary is re-exported for callers that only import the service
type Summary = domain.Summary

// read drains the dump and normalizes every document
func (s *Service) read(ctx context.Context, tos guardrails.Timeouts, rd domain.ReaderPort, sum *Summary) ([]domain.Record, error) {
	readCtx, cancel := guardrails.ForRead(ctx, tos)
	defer cancel()

	var recs []domain.Record
	for {
		if err := readCtx.Err(); err != nil {
			return nil, err
		}
		doc, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		sum.Read++
		s.Metrics.MigrateRead(1)

		rec, err := s.Norm.Normalize(doc)
		if err != nil {
			sum.Skipped++
			s.Metrics.MigrateSkipped(1)
			logger.C(ctx).Debug().Err(err).Int("doc", sum.Read).Msg("migrate: skipped document")
			continue
		}
		recs = append(recs, rec)
	}

	if fault := rd.Err(); fault != nil {
		sum.ReadFault = fault.Error()
		s.printf("scan ended early after %d documents: %v\n", sum.Read, fault)
	}
	return recs, nil
}

// write upserts recs in fixed size batches, one transaction each
func (s *Service) write(ctx context.Context, tos guardrails.Timeouts, recs []domain.Record, sum *Summary) error {
	size := s.Cfg.BatchSize
	for i := 0; i < len(recs); i += size {
		end := min(i+size, len(recs))
		batch := recs[i:end]

		t0 := time.Now()
		inserted, err := s.batchWithRetry(ctx, tos, batch)
		if err != nil {
			return fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		sum.Batches++
		sum.Inserted += inserted
		s.Metrics.MigrateBatch(inserted, time.Since(t0))

		p := domain.Progress{Processed: end, Total: len(recs), BatchSize: len(batch), Inserted: inserted}
		logger.C(ctx).Info().
			Int("processed", p.Processed).
			Int("total", p.Total).
			Int("batch", p.BatchSize).
			Int("inserted", p.Inserted).
			Msg("migrate: batch committed")
		s.printf("%d/%d batch=%d inserted=%d\n", p.Processed, p.Total, p.BatchSize, p.Inserted)
	}
	return nil
}

func (s *Service) batchWithRetry(ctx context.Context, tos guardrails.Timeouts, batch []domain.Record) (int, error) {
	attempts := max(s.Cfg.MaxRetries, 1)
	base := s.Cfg.RetryBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}

	var last error
	for i := range attempts {
		n, err := s.batch(ctx, tos, batch)
		if err == nil {
			return n, nil
		}
		last = err
		// Stop early on non-retryable errors
		if !perr.Retryable(err) && !perr.IsCode(err, perr.ErrorCodeUnavailable) {
			break
		}
		if i == attempts-1 {
			break
		}

		// Exponential backoff with jitter, cap at 30s
		d := min(base<<i, 30*time.Second)
		j := d/2 + time.Duration(rand.Int63n(int64(d/2)))
		logger.C(ctx).Warn().Err(err).Int("attempt", i+1).Dur("backoff", j).Msg("migrate: batch retry")
		if se := sleepCtx(ctx, j); se != nil {
			return 0, se
		}
	}
	return 0, last
}

// batch counts rows around the write so rows that already existed are
// told apart from new ones
func (s *Service) batch(ctx context.Context, tos guardrails.Timeouts, batch []domain.Record) (int, error) {
	bctx, cancel := guardrails.ForBatch(ctx, tos)
	defer cancel()

	before, err := s.Store.Count(bctx)
	if err != nil {
		return 0, err
	}
	if _, err := s.Store.UpsertBatch(bctx, batch); err != nil {
		return 0, err
	}
	after, err := s.Store.Count(bctx)
	if err != nil {
		return 0, err
	}
	return int(after - before), nil
}

// finish records the final count and sample rows
func (s *Service) finish(ctx context.Context, sum *Summary) error {
	n, err := s.Store.Count(ctx)
	if err != nil {
		return err
	}
	sum.FinalCount = n

	s.printf("total=%d skipped=%d inserted=%d rows=%d run=%s\n", sum.Read, sum.Skipped, sum.Inserted, sum.FinalCount, sum.RunID)
	if s.Cfg.SampleRows <= 0 {
		return nil
	}

	rows, err := s.Store.Find(ctx, msgdom.Query{HasAttachments: true, Limit: s.Cfg.SampleRows})
	if err != nil {
		return err
	}
	for _, r := range rows {
		smp := sampleOf(r)
		sum.Samples = append(sum.Samples, smp)
		s.printf("  %s %-16s %s\n", smp.OccurredAt.Format(time.RFC3339), smp.Author, smp.Text)
	}
	return nil
}

func sampleOf(r msgdom.RawMessage) domain.Sample {
	smp := domain.Sample{OccurredAt: r.OccurredAt}
	if authors := r.Authors(); len(authors) > 0 {
		smp.Author = authors[0]
	}
	text := ""
	if r.Text != nil {
		text = *r.Text
	}
	if text == "" {
		if list, _ := r.AttachmentList(); len(list) > 0 {
			if obj, ok := list[0].(map[string]any); ok {
				text, _ = obj["text"].(string)
			}
		}
	}
	smp.Text = clip(text, 50)
	return smp
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func (s *Service) printf(format string, a ...any) {
	if s.Out != nil {
		_, _ = fmt.Fprintf(s.Out, format, a...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsLeaseHeld reports whether err means another run owns the target
func IsLeaseHeld(err error) bool {
	return errors.Is(err, guardrails.ErrLeaseHeld)
}

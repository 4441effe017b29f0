package service

import (
	"context"

	"garden/internal/modkit/repokit"
	perr "garden/internal/platform/errors"
	"garden/internal/platform/logger"
	"garden/internal/services/attendance/domain"
	msgdom "garden/internal/services/messages/domain"
)

func (s *Service) requireBuckets() error {
	if s.DB == nil || s.Binder == nil {
		return perr.InvalidArgf("materialized buckets need SERVICE_PGSQL_DBURL")
	}
	return nil
}

// Refresh folds messages newer than the member's cursor into the stored
// buckets. Existing days seed the visited set so carry-back sees them.
// Exact only while ingestion is ts monotonic; Rebuild covers late arrivals
func (s *Service) Refresh(ctx context.Context, user string) (domain.RefreshResult, error) {
	if err := s.requireBuckets(); err != nil {
		return domain.RefreshResult{}, err
	}
	m, err := s.Roster.Require(user)
	if err != nil {
		return domain.RefreshResult{}, err
	}

	repo := repokit.MustBind(s.Binder, s.DB)
	dates, err := repo.Dates(ctx, m.ID)
	if err != nil {
		return domain.RefreshResult{}, err
	}
	cur, hasCur, err := repo.Cursor(ctx, m.ID)
	if err != nil {
		return domain.RefreshResult{}, err
	}
	var prev *domain.Cursor
	if hasCur {
		prev = &cur
	}

	after := ""
	if prev != nil {
		after = prev.TS
	}
	rows, err := s.Finder.Find(ctx, msgdom.Query{Author: m.ID, AfterTS: after, Sort: msgdom.SortAsc})
	if err != nil {
		return domain.RefreshResult{}, err
	}

	res := domain.RefreshResult{User: m.ID, Scanned: len(rows)}
	if prev != nil {
		res.Cursor = prev.TS
	}
	if len(rows) == 0 {
		return res, nil
	}

	fold := s.engine(ctx, m.ID).NewFold(dates)
	for _, r := range rows {
		if _, ok := fold.Add(r.Engine()); ok {
			res.Filed++
		}
	}
	last := rows[len(rows)-1]
	next := domain.Cursor{TS: last.TS, At: last.OccurredAt}
	added := fold.Added()
	res.Days, res.Cursor = len(added), next.TS

	if err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).Apply(ctx, m.ID, added, prev, next)
	}); err != nil {
		return domain.RefreshResult{}, err
	}
	s.Metrics.BucketsWritten(len(added))
	logger.C(ctx).Info().Str("user", m.ID).Int("scanned", res.Scanned).Int("filed", res.Filed).Int("days", res.Days).Str("cursor", res.Cursor).Msg("attendance: refreshed")
	return res, nil
}

// Rebuild clears the member's buckets and recomputes them from scratch
func (s *Service) Rebuild(ctx context.Context, user string) (domain.RefreshResult, error) {
	if err := s.requireBuckets(); err != nil {
		return domain.RefreshResult{}, err
	}
	m, err := s.Roster.Require(user)
	if err != nil {
		return domain.RefreshResult{}, err
	}

	b, msgs, last, err := s.derive(ctx, m.ID)
	if err != nil {
		return domain.RefreshResult{}, err
	}
	res := domain.RefreshResult{User: m.ID, Scanned: len(msgs), Days: len(b), Cursor: last}
	for _, es := range b {
		res.Filed += len(es)
	}

	var next domain.Cursor
	if len(msgs) > 0 {
		next = domain.Cursor{TS: last, At: msgs[len(msgs)-1].OccurredAt}
	}
	if err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.Binder.Bind(q)
		if err := repo.Clear(ctx, m.ID); err != nil {
			return err
		}
		return repo.Apply(ctx, m.ID, b, nil, next)
	}); err != nil {
		return domain.RefreshResult{}, err
	}
	s.Metrics.BucketsWritten(len(b))
	logger.C(ctx).Info().Str("user", m.ID).Int("days", res.Days).Str("cursor", res.Cursor).Msg("attendance: rebuilt")
	return res, nil
}

// RefreshAll refreshes every member in id order and stops at the first error
func (s *Service) RefreshAll(ctx context.Context) ([]domain.RefreshResult, error) {
	return s.each(ctx, s.Refresh)
}

// RebuildAll rebuilds every member in id order and stops at the first error
func (s *Service) RebuildAll(ctx context.Context) ([]domain.RefreshResult, error) {
	return s.each(ctx, s.Rebuild)
}

func (s *Service) each(ctx context.Context, fn func(context.Context, string) (domain.RefreshResult, error)) ([]domain.RefreshResult, error) {
	out := make([]domain.RefreshResult, 0, len(s.Roster.Members))
	for _, id := range s.Roster.IDs() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		r, err := fn(ctx, id)
		if err != nil {
			return out, perr.WithOp(err, "attendance:"+id)
		}
		out = append(out, r)
	}
	return out, nil
}

// EnsureSchema creates the bucket tables when missing
func (s *Service) EnsureSchema(ctx context.Context) error {
	if err := s.requireBuckets(); err != nil {
		return err
	}
	return repokit.MustBind(s.Binder, s.DB).EnsureSchema(ctx)
}

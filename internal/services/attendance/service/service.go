// Package service answers attendance questions over the message store and
// keeps the materialized buckets current
package service

import (
	"context"
	"time"

	"garden/internal/adapters/roster"
	"garden/internal/core/attendance"
	"garden/internal/modkit/repokit"
	perr "garden/internal/platform/errors"
	"garden/internal/platform/logger"
	"garden/internal/platform/metrics"
	"garden/internal/services/attendance/domain"
	msgdom "garden/internal/services/messages/domain"
)

// Config holds the service knobs
type Config struct {
	// Materialized reads reports from the bucket tables instead of recomputing
	Materialized bool

	// CutoffHour overrides the roster carry-back window when > 0
	CutoffHour int
}

// Service implements the attendance operations
type Service struct {
	Roster  *roster.Roster
	Finder  msgdom.Finder
	Cfg     Config
	Metrics *metrics.Manager

	// DB and Binder back the materialized buckets; nil disables them
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.BucketRepo]

	// Exporter is nil when no analytics sink is configured
	Exporter domain.Exporter
}

// New constructs the service
func New(r *roster.Roster, f msgdom.Finder, cfg Config) *Service {
	if r == nil {
		panic("attendance.Service requires a non nil Roster")
	}
	if f == nil {
		panic("attendance.Service requires a non nil Finder")
	}
	return &Service{Roster: r, Finder: f, Cfg: cfg}
}

// WithBuckets wires the materialized bucket store
func (s *Service) WithBuckets(db repokit.TxRunner, b repokit.Binder[domain.BucketRepo]) *Service {
	s.DB, s.Binder = db, b
	return s
}

// WithExporter wires the analytics sink
func (s *Service) WithExporter(e domain.Exporter) *Service {
	s.Exporter = e
	return s
}

// engine returns a rule engine that logs and counts dropped attachments
func (s *Service) engine(ctx context.Context, user string) *attendance.Engine {
	p := s.Roster.Policy()
	if s.Cfg.CutoffHour > 0 {
		p.CutoffHour = s.Cfg.CutoffHour
	}
	e := attendance.New(p)
	log := logger.C(ctx)
	e.OnSkip = func(sk attendance.Skip) {
		s.Metrics.AttachmentSkipped()
		log.Warn().Str("user", user).Str("ts", sk.TS).Int("attachment", sk.Index).Str("reason", sk.Reason).Msg("attendance: attachment skipped")
	}
	return e
}

func (s *Service) materialized() bool {
	return s.Cfg.Materialized && s.DB != nil && s.Binder != nil
}

// messages loads every message attributed to user strictly after cursor
func (s *Service) messages(ctx context.Context, user, afterTS string) ([]attendance.Message, string, error) {
	rows, err := s.Finder.Find(ctx, msgdom.Query{Author: user, AfterTS: afterTS, Sort: msgdom.SortAsc})
	if err != nil {
		return nil, "", err
	}
	out := make([]attendance.Message, len(rows))
	last := ""
	for i, r := range rows {
		out[i] = r.Engine()
		last = r.TS
	}
	return out, last, nil
}

// Derive recomputes the full history of one member
func (s *Service) Derive(ctx context.Context, user string) (domain.UserAttendance, error) {
	m, err := s.Roster.Require(user)
	if err != nil {
		return domain.UserAttendance{}, err
	}
	b, _, _, err := s.derive(ctx, m.ID)
	if err != nil {
		return domain.UserAttendance{}, err
	}
	return domain.UserAttendance{User: m.ID, Slack: m.Slack, Buckets: b}, nil
}

func (s *Service) derive(ctx context.Context, user string) (domain.Buckets, []attendance.Message, string, error) {
	t0 := time.Now()
	msgs, last, err := s.messages(ctx, user, "")
	if err != nil {
		return nil, nil, "", err
	}
	b := s.engine(ctx, user).Derive(msgs)
	s.Metrics.Derived(time.Since(t0))
	return b, msgs, last, nil
}

// catchUp folds messages stored since the last refresh into the buckets of
// users before a materialized read. A conflict means a concurrent refresh
// is moving the same cursor forward
func (s *Service) catchUp(ctx context.Context, users ...string) error {
	for _, u := range users {
		if _, err := s.Refresh(ctx, u); err != nil && !perr.IsCode(err, perr.ErrorCodeConflict) {
			return perr.WithOp(err, "attendance:catch-up:"+u)
		}
	}
	return nil
}

// History returns the buckets of one member, from the bucket tables when
// materialized reads are on
func (s *Service) History(ctx context.Context, user string) (domain.UserAttendance, error) {
	if !s.materialized() {
		return s.Derive(ctx, user)
	}
	m, err := s.Roster.Require(user)
	if err != nil {
		return domain.UserAttendance{}, err
	}
	if err := s.catchUp(ctx, m.ID); err != nil {
		return domain.UserAttendance{}, err
	}
	b, err := repokit.MustBind(s.Binder, s.DB).Buckets(ctx, m.ID)
	if err != nil {
		return domain.UserAttendance{}, err
	}
	return domain.UserAttendance{User: m.ID, Slack: m.Slack, Buckets: b}, nil
}

// Report lists every member with the first ts filed under day, if any
func (s *Service) Report(ctx context.Context, day domain.Date) ([]domain.ReportRow, error) {
	var firsts map[string]domain.Entry
	if s.materialized() {
		if err := s.catchUp(ctx, s.Roster.IDs()...); err != nil {
			return nil, err
		}
		var err error
		if firsts, err = repokit.MustBind(s.Binder, s.DB).FirstOn(ctx, day); err != nil {
			return nil, err
		}
	}

	out := make([]domain.ReportRow, 0, len(s.Roster.Members))
	for _, m := range s.Roster.Members {
		row := domain.ReportRow{User: m.ID, Slack: m.Slack}

		var (
			first domain.Entry
			ok    bool
		)
		if firsts != nil {
			first, ok = firsts[m.ID]
		} else {
			b, _, _, err := s.derive(ctx, m.ID)
			if err != nil {
				return nil, err
			}
			first, ok = b.First(day)
		}
		if ok {
			ts, at := first.TS, first.At
			row.FirstTS, row.FirstAt = &ts, &at
		}
		out = append(out, row)
	}
	return out, nil
}

// Absentees lists members with no attendance on day
func (s *Service) Absentees(ctx context.Context, day domain.Date) ([]domain.Absentee, error) {
	rows, err := s.Report(ctx, day)
	if err != nil {
		return nil, err
	}
	var out []domain.Absentee
	for _, r := range rows {
		if !r.Attended() {
			out = append(out, domain.Absentee{User: r.User, Slack: r.Slack})
		}
	}
	return out, nil
}

// Calendar lists each member's attended days inside the season
func (s *Service) Calendar(ctx context.Context) ([]domain.CalendarRow, error) {
	start, end := s.Roster.Start, s.Roster.End()
	out := make([]domain.CalendarRow, 0, len(s.Roster.Members))
	for _, m := range s.Roster.Members {
		h, err := s.History(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		row := domain.CalendarRow{User: m.ID, Slack: m.Slack, Dates: []domain.Date{}}
		for _, d := range h.Buckets.Dates() {
			if d.Before(start) || !d.Before(end) {
				continue
			}
			row.Dates = append(row.Dates, d)
		}
		row.Attended = len(row.Dates)
		out = append(out, row)
	}
	return out, nil
}

// Export writes one row per member and day in [from, to] to the sink
func (s *Service) Export(ctx context.Context, from, to domain.Date) (int, error) {
	if s.Exporter == nil {
		return 0, perr.InvalidArgf("attendance export is not configured")
	}
	if to.Before(from) {
		return 0, perr.WithField(perr.New(perr.ErrorCodeValidation, "to must not be before from"), "to")
	}

	var rows []domain.ExportRow
	for _, m := range s.Roster.Members {
		h, err := s.History(ctx, m.ID)
		if err != nil {
			return 0, err
		}
		for _, d := range h.Buckets.Dates() {
			if d.Before(from) || d.After(to) {
				continue
			}
			es := h.Buckets[d]
			commits := 0
			for _, e := range es {
				commits += len(e.Commits)
			}
			rows = append(rows, domain.ExportRow{User: m.ID, Day: d, FirstTS: es[0].TS, FirstAt: es[0].At, Commits: commits})
		}
	}
	if err := s.Exporter.Export(ctx, rows); err != nil {
		return 0, err
	}
	logger.C(ctx).Info().Stringer("from", from).Stringer("to", to).Int("rows", len(rows)).Msg("attendance: exported")
	return len(rows), nil
}

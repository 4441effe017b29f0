// Package repo provides the postgres bucket store and the clickhouse export sink
package repo

import (
	"context"
	"encoding/json"
	"time"

	"garden/internal/core/attendance"
	"garden/internal/modkit/repokit"
	perr "garden/internal/platform/errors"
	"garden/internal/platform/store"
	"garden/internal/services/attendance/domain"
)

type (
	// PG is a Postgres binder for domain.BucketRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.BucketRepo
func NewPG() repokit.Binder[domain.BucketRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.BucketRepo { return &queries{q: q} }

const schemaDDL = `
create table if not exists attendance_buckets (
	user_id  text not null,
	day      date not null,
	first_ts text not null,
	first_at timestamptz not null,
	entries  jsonb not null,
	primary key (user_id, day)
);
create index if not exists attendance_buckets_day on attendance_buckets (day);
create table if not exists attendance_cursors (
	user_id    text primary key,
	last_ts    text not null,
	last_at    timestamptz not null,
	updated_at timestamptz not null default now()
);
`

func (r *queries) EnsureSchema(ctx context.Context) error {
	_, err := r.q.Exec(ctx, schemaDDL)
	return perr.FromPostgres(err, "ensure bucket schema")
}

func (r *queries) Dates(ctx context.Context, user string) ([]domain.Date, error) {
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.Date, error) {
		var d time.Time
		err := row.Scan(&d)
		return dateOf(d), err
	}, `select day from attendance_buckets where user_id = $1 order by day`, user)
	return out, perr.FromPostgres(err, "bucket dates")
}

func (r *queries) Buckets(ctx context.Context, user string) (domain.Buckets, error) {
	rows, err := r.q.Query(ctx, `select day, entries from attendance_buckets where user_id = $1 order by day`, user)
	if err != nil {
		return nil, perr.FromPostgres(err, "load buckets")
	}
	defer rows.Close()
	out := domain.Buckets{}
	for rows.Next() {
		var (
			d   time.Time
			raw []byte
		)
		if err := rows.Scan(&d, &raw); err != nil {
			return nil, perr.FromPostgres(err, "scan bucket")
		}
		var es []domain.Entry
		if err := json.Unmarshal(raw, &es); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeDecode, "bucket %s/%s", user, dateOf(d))
		}
		out[dateOf(d)] = es
	}
	return out, perr.FromPostgres(rows.Err(), "iterate buckets")
}

func (r *queries) Cursor(ctx context.Context, user string) (domain.Cursor, bool, error) {
	c, ok, err := store.First(ctx, r.q, func(row store.Row) (domain.Cursor, error) {
		var c domain.Cursor
		err := row.Scan(&c.TS, &c.At)
		c.At = c.At.UTC()
		return c, err
	}, `select last_ts, last_at from attendance_cursors where user_id = $1`, user)
	return c, ok, perr.FromPostgres(err, "load cursor")
}

func (r *queries) FirstOn(ctx context.Context, day domain.Date) (map[string]domain.Entry, error) {
	rows, err := r.q.Query(ctx, `
		select user_id, first_ts, first_at, entries -> 0
		from attendance_buckets
		where day = $1
	`, day.In(time.UTC))
	if err != nil {
		return nil, perr.FromPostgres(err, "first entries")
	}
	defer rows.Close()
	out := map[string]domain.Entry{}
	for rows.Next() {
		var (
			user string
			e    domain.Entry
			raw  []byte
		)
		if err := rows.Scan(&user, &e.TS, &e.At, &raw); err != nil {
			return nil, perr.FromPostgres(err, "scan first entry")
		}
		if len(raw) > 0 {
			var full domain.Entry
			if err := json.Unmarshal(raw, &full); err == nil {
				e.Commits = full.Commits
			}
		}
		e.At = e.At.UTC()
		out[user] = e
	}
	return out, perr.FromPostgres(rows.Err(), "iterate first entries")
}

func (r *queries) Apply(ctx context.Context, user string, added domain.Buckets, prev *domain.Cursor, next domain.Cursor) error {
	if err := r.moveCursor(ctx, user, prev, next); err != nil {
		return err
	}
	for _, day := range added.Dates() {
		es := added[day]
		if len(es) == 0 {
			continue
		}
		raw, err := json.Marshal(es)
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeJSON, "encode entries")
		}
		// an existing day keeps its first entry, new entries are later in ts order
		if _, err := r.q.Exec(ctx, `
			insert into attendance_buckets (user_id, day, first_ts, first_at, entries)
			values ($1, $2, $3, $4, $5::jsonb)
			on conflict (user_id, day) do update
			set entries = attendance_buckets.entries || excluded.entries
		`, user, day.In(time.UTC), es[0].TS, es[0].At.UTC(), string(raw)); err != nil {
			return perr.FromPostgresf(err, "write bucket %s/%s", user, day)
		}
	}
	return nil
}

func (r *queries) moveCursor(ctx context.Context, user string, prev *domain.Cursor, next domain.Cursor) error {
	if next.TS == "" {
		return nil
	}
	if prev == nil {
		tag, err := r.q.Exec(ctx, `
			insert into attendance_cursors (user_id, last_ts, last_at)
			values ($1, $2, $3)
			on conflict (user_id) do nothing
		`, user, next.TS, next.At.UTC())
		if err != nil {
			return perr.FromPostgres(err, "create cursor")
		}
		if tag.RowsAffected() == 0 {
			return perr.Conflictf("cursor of %s was created concurrently", user)
		}
		return nil
	}
	tag, err := r.q.Exec(ctx, `
		update attendance_cursors
		set last_ts = $3, last_at = $4, updated_at = now()
		where user_id = $1 and last_ts = $2
	`, user, prev.TS, next.TS, next.At.UTC())
	if err != nil {
		return perr.FromPostgres(err, "move cursor")
	}
	if tag.RowsAffected() == 0 {
		return perr.Conflictf("cursor of %s moved concurrently", user)
	}
	return nil
}

func (r *queries) Clear(ctx context.Context, user string) error {
	if _, err := r.q.Exec(ctx, `delete from attendance_buckets where user_id = $1`, user); err != nil {
		return perr.FromPostgres(err, "clear buckets")
	}
	_, err := r.q.Exec(ctx, `delete from attendance_cursors where user_id = $1`, user)
	return perr.FromPostgres(err, "clear cursor")
}

func dateOf(t time.Time) domain.Date { return attendance.DateOf(t.UTC()) }

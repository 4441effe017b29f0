// Package repo provides the postgres and mongo adapters for the message store
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"garden/internal/modkit/repokit"
	perr "garden/internal/platform/errors"
	"garden/internal/platform/store"
	ptime "garden/internal/platform/time"
	"garden/internal/services/messages/domain"
)

// Table names the relational target
type Table struct {
	Schema string
	Name   string
}

// Ident returns the quoted schema qualified name
func (t Table) Ident() string { return pgx.Identifier{t.Schema, t.Name}.Sanitize() }

func (t Table) String() string { return t.Schema + "." + t.Name }

const columns = `ts, ts_for_db, bot_id, type, text, "user", team, bot_profile, attachments`

// queries holds the sql for one table, bound to a pool or a tx
type queries struct {
	q repokit.Queryer
	t Table
}

// PGStore implements domain.Store over a postgres table
type PGStore struct {
	db     repokit.TxRunner
	binder repokit.Binder[*queries]
	t      Table
}

var _ domain.Store = (*PGStore)(nil)

// NewPGStore returns a store over t
func NewPGStore(db repokit.TxRunner, t Table) *PGStore {
	if db == nil {
		panic("messages.PGStore requires a non nil TxRunner")
	}
	bind := repokit.BindFunc[*queries](func(q repokit.Queryer) *queries { return &queries{q: q, t: t} })
	return &PGStore{db: db, binder: bind, t: t}
}

// Backend implements domain.Store
func (s *PGStore) Backend() string { return "pg" }

// Table returns the target table
func (s *PGStore) Table() Table { return s.t }

// Find implements domain.Store
func (s *PGStore) Find(ctx context.Context, q domain.Query) ([]domain.RawMessage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return repokit.MustBind(s.binder, s.db).find(ctx, q)
}

// Upsert implements domain.Store
func (s *PGStore) Upsert(ctx context.Context, m domain.RawMessage) (bool, error) {
	n, err := repokit.MustBind(s.binder, s.db).insert(ctx, []domain.RawMessage{m})
	return n > 0, err
}

// UpsertBatch implements domain.Store with one transaction per call
func (s *PGStore) UpsertBatch(ctx context.Context, ms []domain.RawMessage) (int, error) {
	if len(ms) == 0 {
		return 0, nil
	}
	var inserted int
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		n, err := s.binder.Bind(q).insert(ctx, ms)
		inserted = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Count implements domain.Store
func (s *PGStore) Count(ctx context.Context) (int64, error) {
	return repokit.MustBind(s.binder, s.db).count(ctx)
}

// Ready implements domain.Store
func (s *PGStore) Ready(ctx context.Context) error {
	return repokit.MustBind(s.binder, s.db).ready(ctx)
}

// Purge implements domain.Store
func (s *PGStore) Purge(ctx context.Context) (int64, error) {
	return repokit.MustBind(s.binder, s.db).purge(ctx)
}

func (r *queries) ready(ctx context.Context) error {
	var schemaOK bool
	if err := r.q.QueryRow(ctx,
		`select exists (select 1 from information_schema.schemata where schema_name = $1)`,
		r.t.Schema,
	).Scan(&schemaOK); err != nil {
		return perr.FromPostgres(err, "check schema")
	}
	if !schemaOK {
		return perr.SchemaMissingf("schema %q does not exist", r.t.Schema)
	}

	reg, err := store.Scalar[*string](ctx, r.q, `select to_regclass($1::text)::text`, r.t.Ident())
	if err != nil {
		return perr.FromPostgres(err, "check table")
	}
	if reg == nil {
		return perr.SchemaMissingf("table %s does not exist", r.t)
	}
	return nil
}

func (r *queries) count(ctx context.Context) (int64, error) {
	n, err := store.Scalar[int64](ctx, r.q, `select count(*) from `+r.t.Ident())
	return n, perr.FromPostgres(err, "count messages")
}

func (r *queries) purge(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx, `delete from `+r.t.Ident())
	if err != nil {
		return 0, perr.FromPostgres(err, "purge messages")
	}
	return tag.RowsAffected(), nil
}

// insert writes ms in a single statement; conflicts on ts are skipped,
// including duplicates inside ms
func (r *queries) insert(ctx context.Context, ms []domain.RawMessage) (int, error) {
	n := len(ms)
	var (
		ts      = make([]string, n)
		at      = make([]time.Time, n)
		botID   = make([]*string, n)
		typ     = make([]*string, n)
		text    = make([]*string, n)
		user    = make([]*string, n)
		team    = make([]*string, n)
		profile = make([]*string, n)
		atts    = make([]*string, n)
	)
	for i, m := range ms {
		ts[i] = m.TS
		at[i] = m.OccurredAt.UTC()
		botID[i], typ[i], text[i], user[i], team[i] = m.BotID, m.Type, m.Text, m.User, m.Team
		profile[i] = jsonText(m.BotProfile)
		atts[i] = jsonText(m.Attachments)
	}

	sql := `
insert into ` + r.t.Ident() + ` (` + columns + `)
select u.ts, u.at, u.bot_id, u.type, u.text, u.usr, u.team, u.bp::jsonb, u.att::jsonb
from unnest(
	$1::text[], $2::timestamptz[], $3::text[], $4::text[], $5::text[],
	$6::text[], $7::text[], $8::text[], $9::text[]
) as u(ts, at, bot_id, type, text, usr, team, bp, att)
on conflict (ts) do nothing
`
	tag, err := r.q.Exec(ctx, sql, ts, at, botID, typ, text, user, team, profile, atts)
	if err != nil {
		return 0, perr.FromPostgresf(err, "insert %d messages", n)
	}
	return int(tag.RowsAffected()), nil
}

func (r *queries) find(ctx context.Context, q domain.Query) ([]domain.RawMessage, error) {
	sql, args, err := buildFind(r.t, q)
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, perr.FromPostgres(err, "find messages")
	}
	defer rows.Close()

	var out []domain.RawMessage
	for rows.Next() {
		var (
			m       domain.RawMessage
			profile []byte
			atts    []byte
		)
		if err := rows.Scan(&m.TS, &m.OccurredAt, &m.BotID, &m.Type, &m.Text, &m.User, &m.Team, &profile, &atts); err != nil {
			return nil, perr.FromPostgres(err, "scan message")
		}
		m.OccurredAt = m.OccurredAt.UTC()
		if len(profile) > 0 {
			m.BotProfile = json.RawMessage(profile)
		}
		if len(atts) > 0 {
			m.Attachments = json.RawMessage(atts)
		}
		out = append(out, m)
	}
	return out, perr.FromPostgres(rows.Err(), "iterate messages")
}

// buildFind renders the select for q. Values are always bound
func buildFind(t Table, q domain.Query) (string, []any, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Author != "" {
		where = append(where, `attachments @> jsonb_build_array(jsonb_build_object('author_name', `+arg(q.Author)+`::text))`)
	}
	for _, k := range q.EqualKeys() {
		where = append(where, pgx.Identifier{k}.Sanitize()+` = `+arg(q.Equals[k]))
	}
	if !q.From.IsZero() {
		where = append(where, `ts_for_db >= `+arg(q.From.UTC()))
	}
	if !q.Until.IsZero() {
		where = append(where, `ts_for_db < `+arg(q.Until.UTC()))
	}
	if q.AfterTS != "" {
		after, err := ptime.ParseUnixDecimal(q.AfterTS)
		if err != nil {
			return "", nil, perr.WithField(perr.Wrap(err, perr.ErrorCodeValidation, "after_ts is not a unix timestamp"), "after_ts")
		}
		where = append(where, `(ts_for_db, ts) > (`+arg(after)+`, `+arg(q.AfterTS)+`)`)
	}
	if q.HasAttachments {
		where = append(where, `jsonb_typeof(attachments) = 'array' and attachments <> '[]'::jsonb`)
	}

	var b strings.Builder
	b.WriteString(`select ` + columns + ` from ` + t.Ident())
	if len(where) > 0 {
		b.WriteString(` where ` + strings.Join(where, ` and `))
	}
	if q.Desc() {
		b.WriteString(` order by ts_for_db desc, ts desc`)
	} else {
		b.WriteString(` order by ts_for_db asc, ts asc`)
	}
	if q.Limit > 0 {
		b.WriteString(` limit ` + arg(q.Limit))
	}
	return b.String(), args, nil
}

func jsonText(b json.RawMessage) *string {
	if len(b) == 0 {
		return nil
	}
	s := string(b)
	return &s
}

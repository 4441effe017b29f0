package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"garden/internal/adapters/roster"
	"garden/internal/core/attendance"
	"garden/internal/modkit/repokit"
	perr "garden/internal/platform/errors"
	"garden/internal/platform/store"
	ptime "garden/internal/platform/time"
	"garden/internal/services/attendance/domain"
	msgdom "garden/internal/services/messages/domain"
	msgrepo "garden/internal/services/messages/repo"
)

// memTx runs fn without a real transaction
type memTx struct{ store.RowQuerier }

func (memTx) Tx(ctx context.Context, fn func(store.RowQuerier) error) error { return fn(nil) }

// memBuckets is an in-memory domain.BucketRepo
type memBuckets struct {
	mu      sync.Mutex
	buckets map[string]domain.Buckets
	cursors map[string]domain.Cursor

	// applyErr, when set, fails the next Apply
	applyErr error
}

func newMemBuckets() *memBuckets {
	return &memBuckets{buckets: map[string]domain.Buckets{}, cursors: map[string]domain.Cursor{}}
}

func (m *memBuckets) Bind(repokit.Queryer) domain.BucketRepo { return m }

func (m *memBuckets) EnsureSchema(context.Context) error { return nil }

func (m *memBuckets) Dates(_ context.Context, user string) ([]domain.Date, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buckets[user].Dates(), nil
}

func (m *memBuckets) Buckets(_ context.Context, user string) (domain.Buckets, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := domain.Buckets{}
	for d, es := range m.buckets[user] {
		out[d] = append([]domain.Entry(nil), es...)
	}
	return out, nil
}

func (m *memBuckets) Cursor(_ context.Context, user string) (domain.Cursor, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cursors[user]
	return c, ok, nil
}

func (m *memBuckets) FirstOn(_ context.Context, day domain.Date) (map[string]domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]domain.Entry{}
	for u, b := range m.buckets {
		if e, ok := b.First(day); ok {
			out[u] = e
		}
	}
	return out, nil
}

func (m *memBuckets) Apply(_ context.Context, user string, added domain.Buckets, prev *domain.Cursor, next domain.Cursor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.applyErr; err != nil {
		m.applyErr = nil
		return err
	}
	cur, ok := m.cursors[user]
	switch {
	case prev == nil && ok:
		return perr.Conflictf("cursor of %s was created concurrently", user)
	case prev != nil && (!ok || cur.TS != prev.TS):
		return perr.Conflictf("cursor of %s moved concurrently", user)
	}
	if next.TS != "" {
		m.cursors[user] = next
	}
	if m.buckets[user] == nil {
		m.buckets[user] = domain.Buckets{}
	}
	for d, es := range added {
		m.buckets[user][d] = append(m.buckets[user][d], es...)
	}
	return nil
}

func (m *memBuckets) Clear(_ context.Context, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets, user)
	delete(m.cursors, user)
	return nil
}

// memExporter records exported rows
type memExporter struct{ rows []domain.ExportRow }

func (e *memExporter) Export(_ context.Context, rows []domain.ExportRow) error {
	e.rows = append(e.rows, rows...)
	sort.Slice(e.rows, func(i, j int) bool {
		if e.rows[i].User != e.rows[j].User {
			return e.rows[i].User < e.rows[j].User
		}
		return e.rows[i].Day.Before(e.rows[j].Day)
	})
	return nil
}

func testRoster(t *testing.T) *roster.Roster {
	t.Helper()
	r, err := roster.New(attendance.MustDate("2024-01-01"), 10, time.UTC,
		roster.Member{ID: "alice", Slack: "Alice"},
		roster.Member{ID: "bob", Slack: "Bob"},
	)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// commitAt builds a stored message at a UTC wall clock time
func commitAt(t *testing.T, at, author string) msgdom.RawMessage {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04", at)
	if err != nil {
		t.Fatalf("bad fixture time %q: %v", at, err)
	}
	atts, _ := json.Marshal([]map[string]any{{"author_name": author, "text": "commit " + at}})
	typ := "message"
	return msgdom.RawMessage{TS: ptime.FormatUnixDecimal(ts), OccurredAt: ts, Type: &typ, Attachments: atts}
}

func seed(t *testing.T, s *msgrepo.MemStore, msgs ...msgdom.RawMessage) {
	t.Helper()
	if _, err := s.UpsertBatch(context.Background(), msgs); err != nil {
		t.Fatal(err)
	}
}

func dateList(ds []domain.Date) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

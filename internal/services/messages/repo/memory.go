package repo

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	perr "garden/internal/platform/errors"
	ptime "garden/internal/platform/time"
	"garden/internal/services/messages/domain"
)

// MemStore is an in-process domain.Store for local runs and tests
type MemStore struct {
	mu   sync.RWMutex
	rows map[string]domain.RawMessage
}

var _ domain.Store = (*MemStore)(nil)

// NewMemStore returns an empty store
func NewMemStore() *MemStore { return &MemStore{rows: map[string]domain.RawMessage{}} }

// Backend implements domain.Store
func (s *MemStore) Backend() string { return "memory" }

// Ready implements domain.Store
func (s *MemStore) Ready(context.Context) error { return nil }

// Count implements domain.Store
func (s *MemStore) Count(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.rows)), nil
}

// Purge implements domain.Store
func (s *MemStore) Purge(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.rows))
	s.rows = map[string]domain.RawMessage{}
	return n, nil
}

// Upsert implements domain.Store
func (s *MemStore) Upsert(ctx context.Context, m domain.RawMessage) (bool, error) {
	n, err := s.UpsertBatch(ctx, []domain.RawMessage{m})
	return n > 0, err
}

// UpsertBatch implements domain.Store
func (s *MemStore) UpsertBatch(ctx context.Context, ms []domain.RawMessage) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range ms {
		if _, ok := s.rows[m.TS]; ok {
			continue
		}
		m.OccurredAt = m.OccurredAt.UTC()
		s.rows[m.TS] = m
		n++
	}
	return n, nil
}

// Find implements domain.Store
func (s *MemStore) Find(ctx context.Context, q domain.Query) ([]domain.RawMessage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var after time.Time
	if q.AfterTS != "" {
		t, err := ptime.ParseUnixDecimal(q.AfterTS)
		if err != nil {
			return nil, perr.WithField(perr.Wrap(err, perr.ErrorCodeValidation, "after_ts is not a unix timestamp"), "after_ts")
		}
		after = t
	}

	s.mu.RLock()
	var out []domain.RawMessage
	for _, m := range s.rows {
		if matches(m, q, after) {
			out = append(out, m)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if q.Desc() {
			i, j = j, i
		}
		return less(out[i], out[j])
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func less(a, b domain.RawMessage) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.Before(b.OccurredAt)
	}
	return a.TS < b.TS
}

func matches(m domain.RawMessage, q domain.Query, after time.Time) bool {
	if q.Author != "" && !slices.Contains(m.Authors(), q.Author) {
		return false
	}
	for k, v := range q.Equals {
		got := column(m, k)
		if got == nil || *got != v {
			return false
		}
	}
	if !q.From.IsZero() && m.OccurredAt.Before(q.From) {
		return false
	}
	if !q.Until.IsZero() && !m.OccurredAt.Before(q.Until) {
		return false
	}
	if q.AfterTS != "" && !less(domain.RawMessage{TS: q.AfterTS, OccurredAt: after}, m) {
		return false
	}
	if q.HasAttachments {
		list, err := m.AttachmentList()
		if err != nil || len(list) == 0 {
			return false
		}
	}
	return true
}

func column(m domain.RawMessage, k string) *string {
	switch k {
	case "ts":
		return &m.TS
	case "bot_id":
		return m.BotID
	case "type":
		return m.Type
	case "text":
		return m.Text
	case "user":
		return m.User
	case "team":
		return m.Team
	}
	return nil
}

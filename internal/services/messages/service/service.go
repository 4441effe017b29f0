// Package service provides read and maintenance workflows over the message store
package service

import (
	"context"

	perr "garden/internal/platform/errors"
	"garden/internal/platform/logger"
	"garden/internal/services/messages/domain"
)

// Config bounds the read surface
type Config struct {
	DefaultLimit int // applied when a query has no limit; <=0 -> 100
	MaxLimit     int // hard cap; <=0 -> 1000
}

// Service wraps a domain.Store
type Service struct {
	Store domain.Store
	Cfg   Config
}

// New constructs the service
func New(store domain.Store, cfg Config) *Service {
	if store == nil {
		panic("messages.Service requires a non nil Store")
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 100
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 1000
	}
	return &Service{Store: store, Cfg: cfg}
}

// Search runs a bounded Find for interactive callers
func (s *Service) Search(ctx context.Context, q domain.Query) ([]domain.RawMessage, error) {
	if q.Limit == 0 {
		q.Limit = s.Cfg.DefaultLimit
	}
	if q.Limit > s.Cfg.MaxLimit {
		return nil, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "limit must be at most %d", s.Cfg.MaxLimit), "limit")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return s.Store.Find(ctx, q)
}

// Purge removes every stored message after checking the target exists
func (s *Service) Purge(ctx context.Context) (int64, error) {
	if err := s.Store.Ready(ctx); err != nil {
		return 0, err
	}
	n, err := s.Store.Purge(ctx)
	if err != nil {
		return 0, err
	}
	logger.C(ctx).Warn().Str("backend", s.Store.Backend()).Int64("removed", n).Msg("messages: purged")
	return n, nil
}

// Stats reports the backend and row count
func (s *Service) Stats(ctx context.Context) (backend string, rows int64, err error) {
	rows, err = s.Store.Count(ctx)
	return s.Store.Backend(), rows, err
}

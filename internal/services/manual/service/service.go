// Package service records a GitHub commit as a chat message for members
// whose notification never reached the channel
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"garden/internal/adapters/github"
	"garden/internal/adapters/roster"
	"garden/internal/core/normalize"
	perr "garden/internal/platform/errors"
	"garden/internal/platform/logger"
	"garden/internal/platform/net/http/bind"
	ptime "garden/internal/platform/time"
	"garden/internal/services/manual/domain"
	msgdom "garden/internal/services/messages/domain"
)

// Config holds defaults applied to every insert
type Config struct {
	Operator string
	BotUser  string
}

// Service implements manual inserts
type Service struct {
	Roster  *roster.Roster
	Store   msgdom.Store
	Commits domain.CommitSource
	Cfg     Config
	Now     func() time.Time
}

// New constructs the service
func New(r *roster.Roster, store msgdom.Store, commits domain.CommitSource, cfg Config) *Service {
	if r == nil || store == nil || commits == nil {
		panic("manual.Service requires a roster, a store and a commit source")
	}
	return &Service{Roster: r, Store: store, Commits: commits, Cfg: cfg, Now: time.Now}
}

// Insert fetches the commit behind req.URL and stores it as a message
// attributed to the repository owner. Repeating an insert is a no-op
func (s *Service) Insert(ctx context.Context, req domain.Request) (domain.Result, error) {
	if err := bind.Struct(req); err != nil {
		return domain.Result{}, err
	}
	ref, err := github.ParseCommitURL(req.URL)
	if err != nil {
		return domain.Result{}, err
	}
	member, err := s.member(ref.Owner)
	if err != nil {
		return domain.Result{}, err
	}
	operator := req.Operator
	if operator == "" {
		operator = s.Cfg.Operator
	}
	if operator == "" {
		return domain.Result{}, perr.WithField(perr.New(perr.ErrorCodeValidation, "operator is required"), "operator")
	}

	c, err := s.Commits.Commit(ctx, ref)
	if err != nil {
		return domain.Result{}, perr.WithOp(err, "manual:commit")
	}

	m, err := s.message(member, ref, c, operator)
	if err != nil {
		return domain.Result{}, err
	}
	inserted, err := s.Store.Upsert(ctx, m)
	if err != nil {
		return domain.Result{}, err
	}

	logger.C(ctx).Info().
		Str("user", member.ID).
		Str("sha", ref.Short()).
		Str("ts", m.TS).
		Bool("inserted", inserted).
		Str("operator", operator).
		Msg("manual: commit recorded")
	return domain.Result{User: member.ID, TS: m.TS, Inserted: inserted, Message: m}, nil
}

// member resolves a GitHub login against the roster ignoring case
func (s *Service) member(login string) (roster.Member, error) {
	if m, ok := s.Roster.Lookup(login); ok {
		return m, nil
	}
	for _, m := range s.Roster.Members {
		if normalize.Equal(m.ID, login) {
			return m, nil
		}
	}
	return roster.Member{}, perr.NotFoundf("user %q is not registered", login)
}

func (s *Service) message(member roster.Member, ref github.CommitRef, c github.Commit, operator string) (msgdom.RawMessage, error) {
	at := c.Commit.Author.Date.UTC()
	day := s.Now().In(s.Roster.Location).Format("2006-01-02")
	text := fmt.Sprintf("*manual insert %s by %s*\n<%s|`%s`> - %s",
		day, normalize.Text(operator), ref.URL(), ref.Short(), normalize.Text(c.Commit.Message))

	atts, err := json.Marshal([]map[string]string{{"author_name": member.ID, "text": text}})
	if err != nil {
		return msgdom.RawMessage{}, perr.Wrap(err, perr.ErrorCodeJSON, "encode attachment")
	}

	typ := "message"
	m := msgdom.RawMessage{
		TS:          ptime.FormatUnixDecimal(at),
		OccurredAt:  at.Truncate(time.Microsecond),
		Type:        &typ,
		Attachments: atts,
	}
	if s.Cfg.BotUser != "" {
		u := s.Cfg.BotUser
		m.User = &u
	}
	return m, nil
}

// Package domain holds the manual insert types and ports
package domain

import (
	"context"

	"garden/internal/adapters/github"
	msgdom "garden/internal/services/messages/domain"
)

// Request asks for one commit to be recorded as if it had been posted
type Request struct {
	URL      string `json:"url" validate:"required,url"`
	Operator string `json:"operator,omitempty"`
}

// Result reports the synthesized message and whether it was new
type Result struct {
	User     string            `json:"user"`
	TS       string            `json:"ts"`
	Inserted bool              `json:"inserted"`
	Message  msgdom.RawMessage `json:"message"`
}

// CommitSource looks up one commit
type CommitSource interface {
	Commit(ctx context.Context, ref github.CommitRef) (github.Commit, error)
}

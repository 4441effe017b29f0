// Package domain holds DTOs and ports for the message search http surface
package domain

import (
	"context"
	"time"

	msgdom "garden/internal/services/messages/domain"
)

// FindInput filters stored messages. from is inclusive, until exclusive
type FindInput struct {
	Author string     `json:"author,omitempty" validate:"omitempty,max=100" example:"alice"`
	Type   string     `json:"type,omitempty" validate:"omitempty,max=50" example:"message"`
	From   *time.Time `json:"from,omitempty" example:"2024-01-01T00:00:00Z"`
	Until  *time.Time `json:"until,omitempty" example:"2024-01-02T00:00:00Z"`
	Sort   string     `json:"sort,omitempty" validate:"omitempty,oneof=ts -ts" example:"-ts"`
	Limit  int        `json:"limit,omitempty" validate:"omitempty,min=1" example:"50"`
}

// Message is the display form of a stored message
type Message struct {
	TS         string    `json:"ts"`
	OccurredAt time.Time `json:"occurred_at"`
	Type       string    `json:"type,omitempty"`
	User       string    `json:"user,omitempty"`
	Text       string    `json:"text,omitempty"`
	Authors    []string  `json:"authors"`
	Commits    []string  `json:"commits"`
}

// ServicePort is what the handlers need from the message service
type ServicePort interface {
	Search(ctx context.Context, q msgdom.Query) ([]msgdom.RawMessage, error)
}

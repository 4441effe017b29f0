// Package domain holds the message store contract shared by the migration
// pipeline, manual inserts and the attendance engine
package domain

import (
	"encoding/json"
	"time"

	"garden/internal/core/attendance"
	perr "garden/internal/platform/errors"
)

// RawMessage is one chat event as stored
// BotProfile and Attachments hold JSON documents or nil when absent
type RawMessage struct {
	TS          string          `json:"ts"`
	OccurredAt  time.Time       `json:"occurred_at"`
	BotID       *string         `json:"bot_id,omitempty"`
	Type        *string         `json:"type,omitempty"`
	Text        *string         `json:"text,omitempty"`
	User        *string         `json:"user,omitempty"`
	Team        *string         `json:"team,omitempty"`
	BotProfile  json.RawMessage `json:"bot_profile,omitempty"`
	Attachments json.RawMessage `json:"attachments,omitempty"`
}

// AttachmentList decodes the attachments document
// nil attachments decode to an empty list
func (m RawMessage) AttachmentList() ([]any, error) {
	if len(m.Attachments) == 0 {
		return nil, nil
	}
	var out []any
	if err := json.Unmarshal(m.Attachments, &out); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDecode, "attachments of %s", m.TS)
	}
	return out, nil
}

// Authors returns the author_name of each attachment that carries one
func (m RawMessage) Authors() []string {
	list, err := m.AttachmentList()
	if err != nil {
		return nil
	}
	var out []string
	for _, a := range list {
		obj, ok := a.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := obj["author_name"].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Engine converts the row into the engine's input shape
// unreadable attachments become an empty list so the message is ignored
func (m RawMessage) Engine() attendance.Message {
	list, _ := m.AttachmentList()
	return attendance.Message{TS: m.TS, OccurredAt: m.OccurredAt, Attachments: list}
}

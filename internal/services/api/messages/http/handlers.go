// Package http provides http transport for message search
package http

import (
	stdhttp "net/http"

	"garden/internal/core/normalize"
	"garden/internal/modkit/httpkit"
	str "garden/internal/platform/strings"
	"garden/internal/services/api/messages/domain"
	msgdom "garden/internal/services/messages/domain"
)

// Register mounts message endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.FindInput](r, "/find", h.find)
}

type handlers struct{ svc domain.ServicePort }

// swagger:route POST /messages/find Messages messagesFind
// @Summary Search stored messages
// @Tags Messages
// @Accept json
// @Produce json
// @Param payload body domain.FindInput true "Filters"
// @Success 200 {array} domain.Message "ok"
// @Router /messages/find [post]
func (h *handlers) find(r *stdhttp.Request, in domain.FindInput) (any, error) {
	q := msgdom.Query{Author: in.Author, Sort: in.Sort, Limit: in.Limit}
	if in.Type != "" {
		q.Equals = map[string]string{"type": in.Type}
	}
	if in.From != nil {
		q.From = in.From.UTC()
	}
	if in.Until != nil {
		q.Until = in.Until.UTC()
	}

	rows, err := h.svc.Search(r.Context(), q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, len(rows))
	for _, m := range rows {
		out = append(out, display(m))
	}
	return out, nil
}

// display flattens a row and cleans the free text fields
func display(m msgdom.RawMessage) domain.Message {
	out := domain.Message{
		TS:         m.TS,
		OccurredAt: m.OccurredAt,
		Type:       str.Deref(m.Type),
		User:       str.Deref(m.User),
		Text:       normalize.Text(str.Deref(m.Text)),
		Authors:    m.Authors(),
		Commits:    []string{},
	}
	if out.Authors == nil {
		out.Authors = []string{}
	}
	list, _ := m.AttachmentList()
	for _, a := range list {
		obj, ok := a.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := obj["text"].(string); ok {
			out.Commits = append(out.Commits, normalize.Text(s))
		}
	}
	return out
}

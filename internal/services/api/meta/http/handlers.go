// Package http serves liveness, readiness and build info
package http

import (
	"context"
	"net/http"
	"time"

	"garden/internal/core/version"
	"garden/internal/modkit/httpkit"
)

// probeTimeout bounds the whole readiness round
const probeTimeout = 2 * time.Second

// Probe is one readiness dependency. A nil Ping means the backend is not
// configured for this process
type Probe struct {
	Name string
	Ping func(context.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	Service string
	Started time.Time
	Probes  []Probe
	Now     func() time.Time
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// ReadyCheck is the outcome of one probe: ok, fail or skipped
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadyResponse is ok unless a probe failed
type ReadyResponse struct {
	Status string       `json:"status"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

// ServiceResponse reports uptime in seconds
type ServiceResponse struct {
	Name    string `json:"name"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

type handlers struct{ Deps }

// Register mounts /health, /ready, /version and /service on r
func Register(r httpkit.Router, d Deps) {
	if d.Now == nil {
		d.Now = time.Now
	}
	h := handlers{d}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", func(*http.Request) (any, error) { return version.Info(), nil })
	httpkit.Get(r, "/service", h.service)
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func (h handlers) health(*http.Request) (any, error) {
	return HealthResponse{OK: true, Service: h.Service, Started: stamp(h.Started), Now: stamp(h.Now())}, nil
}

func (h handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	out := ReadyResponse{Status: "ok", Checks: make([]ReadyCheck, 0, len(h.Probes))}
	for _, p := range h.Probes {
		c := ReadyCheck{Name: p.Name, Status: "skipped"}
		if p.Ping != nil {
			c.Status = "ok"
			if err := p.Ping(ctx); err != nil {
				c.Status, c.Error = "fail", err.Error()
				out.Status = "fail"
			}
		}
		out.Checks = append(out.Checks, c)
	}
	out.Now = stamp(h.Now())
	return out, nil
}

func (h handlers) service(*http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.Service,
		Started: stamp(h.Started),
		Uptime:  int64(h.Now().Sub(h.Started) / time.Second),
	}, nil
}

// Package module wires the attendance service to the roster, the message
// store and the optional bucket and export backends
package module

import (
	"garden/internal/adapters/roster"
	"garden/internal/modkit"
	perr "garden/internal/platform/errors"
	"garden/internal/services/attendance/repo"
	"garden/internal/services/attendance/service"
	msgmod "garden/internal/services/messages/module"
)

// Ports defines the attendance module ports
type Ports struct {
	Service *service.Service
}

// Module implements the attendance module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

// New constructs the attendance module. Buckets are wired whenever postgres
// is available; reads only use them when opts.Materialized is set
func New(deps modkit.Deps, r *roster.Roster, messages *msgmod.Module, opts Options) (*Module, error) {
	if r == nil || messages == nil {
		return nil, perr.InvalidArgf("attendance: roster and messages are required")
	}
	if opts.Materialized && deps.PG == nil {
		return nil, perr.InvalidArgf("attendance: materialized reads need SERVICE_PGSQL_DBURL")
	}

	svc := service.New(r, messages.Store(), service.Config{
		Materialized: opts.Materialized,
		CutoffHour:   opts.CutoffHour,
	})
	svc.Metrics = deps.Metrics
	if deps.PG != nil {
		svc.WithBuckets(deps.PG, repo.NewPG())
	}
	if deps.CH != nil {
		exp, err := repo.NewCHExporter(deps.CH, opts.ExportTable)
		if err != nil {
			return nil, err
		}
		svc.WithExporter(exp)
	}

	return &Module{deps: deps, opts: opts, ports: Ports{Service: svc}}, nil
}

// Name returns the module name
func (m *Module) Name() string { return "attendance" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Service returns the attendance service
func (m *Module) Service() *service.Service { return m.ports.Service }

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

// Package module provides the migration module implementation
package module

import (
	"io"

	"garden/internal/modkit"
	msgmod "garden/internal/services/messages/module"
	msgrepo "garden/internal/services/messages/repo"
	"garden/internal/services/migrate/domain"
	"garden/internal/services/migrate/guardrails"
	"garden/internal/services/migrate/ingest"
	"garden/internal/services/migrate/service"
)

// Ports defines the migration module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the migration module
type Module struct {
	deps  modkit.Deps
	svc   *service.Service
	ports Ports
}

// New constructs the migration module on top of the selected message store.
// It does not mount any routes
func New(deps modkit.Deps, messages *msgmod.Module, opts Options, out io.Writer) *Module {
	store := messages.Store()

	svc := service.New(store, ingest.NewSource(), ingest.NewNormalizer(), service.Config{
		BatchSize:    opts.BatchSize,
		MaxRetries:   opts.MaxRetries,
		RetryBase:    opts.RetryBase,
		ReadTimeout:  opts.ReadTimeout,
		BatchTimeout: opts.BatchTimeout,
		EnableLeases: opts.EnableLeases,
		LeaseTTL:     opts.LeaseTTL,
		SampleRows:   opts.SampleRows,
		DryRun:       opts.DryRun,
	})
	svc.Metrics = deps.Metrics
	svc.Out = out

	// leases live next to the relational target only
	if pgs, ok := store.(*msgrepo.PGStore); ok && deps.PG != nil {
		svc.Lease = guardrails.MakeLease(deps.PG)
		svc.Target = pgs.Table().String()
	}

	m := &Module{deps: deps, svc: svc}
	m.ports = Ports{Runner: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "migrate" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Service returns the pipeline
func (m *Module) Service() *service.Service { return m.svc }

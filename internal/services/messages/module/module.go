// Package module wires the message store adapter selected by configuration
package module

import (
	"garden/internal/modkit"
	perr "garden/internal/platform/errors"
	"garden/internal/services/messages/domain"
	"garden/internal/services/messages/repo"
	"garden/internal/services/messages/service"
)

// Ports defines the messages module ports
type Ports struct {
	Store   domain.Store
	Service *service.Service
}

// Module implements the messages module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

// New constructs the messages module from deps.Cfg
func New(deps modkit.Deps) (*Module, error) {
	return NewWithOptions(deps, FromConfig(deps.Cfg))
}

// NewWithOptions constructs the module with explicit options
func NewWithOptions(deps modkit.Deps, opts Options) (*Module, error) {
	store, err := openStore(deps, opts)
	if err != nil {
		return nil, err
	}
	svc := service.New(store, service.Config{DefaultLimit: opts.DefaultLimit, MaxLimit: opts.MaxLimit})
	return &Module{deps: deps, opts: opts, ports: Ports{Store: store, Service: svc}}, nil
}

func openStore(deps modkit.Deps, opts Options) (domain.Store, error) {
	switch opts.Backend {
	case BackendPG:
		if deps.PG == nil {
			return nil, perr.InvalidArgf("messages: backend pg needs SERVICE_PGSQL_DBURL")
		}
		return repo.NewPGStore(deps.PG, repo.Table{Schema: opts.Schema, Name: opts.Table}), nil
	case BackendMongo:
		if deps.Mongo == nil {
			return nil, perr.InvalidArgf("messages: backend mongo needs SERVICE_MONGO_ENABLED=true")
		}
		return repo.NewMongoStore(deps.Mongo.DB(), opts.Collection), nil
	case BackendMem:
		return repo.NewMemStore(), nil
	}
	return nil, perr.InvalidArgf("messages: unknown backend %q", opts.Backend)
}

// Name returns the module name
func (m *Module) Name() string { return "messages" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Store returns the selected adapter
func (m *Module) Store() domain.Store { return m.ports.Store }

// Service returns the read service
func (m *Module) Service() *service.Service { return m.ports.Service }

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

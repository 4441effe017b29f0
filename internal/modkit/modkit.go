package modkit

import (
	"net/http"

	"garden/internal/modkit/httpkit"
	phttp "garden/internal/platform/net/http"
	str "garden/internal/platform/strings"
)

// Module is the common surface for API modules that can mount routes and expose ports
// keep this tiny so modules stay decoupled
type Module interface {
	// MountRoutes mounts HTTP routes under the provided router seam
	MountRoutes(r phttp.Router)
	// Ports returns a module specific port set interface for cross wiring
	Ports() any

	// Name returns the module name
	Name() string
}

// Option mutates build configuration for a module
type Option func(*Built)

// Built is a plain struct with the fields modules care about
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
}

// WithName sets a module name used in logs and registry
func WithName(name string) Option {
	return func(b *Built) { b.Name = name }
}

// WithPrefix mounts a module under a path prefix
func WithPrefix(prefix string) Option {
	return func(b *Built) { b.Prefix = prefix }
}

// WithMiddlewares attaches per module middleware in order
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// Build applies opts in order. Later options win
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	return b
}

// Mounted is a Module assembled from a Built config and the module's own
// route registration
type Mounted struct {
	b      Built
	ports  any
	routes func(httpkit.Router)
}

// NewMounted wires routes under b.Prefix. ports may be nil. Panics when b has
// no name or prefix
func NewMounted(b Built, ports any, routes func(httpkit.Router)) *Mounted {
	b.Name = str.MustString(b.Name, "module name")
	b.Prefix = str.MustPrefix(b.Prefix)
	return &Mounted{b: b, ports: ports, routes: routes}
}

// MountRoutes implements Module
func (m *Mounted) MountRoutes(r phttp.Router) {
	httpkit.MountUnder(r, m.b.Prefix, m.b.Mw, m.routes)
}

// Ports implements Module
func (m *Mounted) Ports() any { return m.ports }

// Name implements Module
func (m *Mounted) Name() string { return m.b.Name }

// Prefix is the normalized mount path
func (m *Mounted) Prefix() string { return m.b.Prefix }

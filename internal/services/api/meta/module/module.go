// Package module mounts the meta endpoints under /meta
package module

import (
	"context"
	"time"

	"garden/internal/core/version"
	modkit "garden/internal/modkit"
	"garden/internal/modkit/httpkit"

	metahttp "garden/internal/services/api/meta/http"
)

// Readier reports whether a store's namespace exists
type Readier interface {
	Ready(context.Context) error
}

type pinger interface{ Ping(context.Context) error }

// probe turns any backend seam into a readiness probe. Seams that are nil
// or cannot ping are reported as skipped
func probe(name string, seam any) metahttp.Probe {
	p := metahttp.Probe{Name: name}
	if s, ok := seam.(pinger); ok {
		p.Ping = s.Ping
	}
	return p
}

// New constructs the meta module. messages may be nil
func New(deps modkit.Deps, messages Readier, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	probes := []metahttp.Probe{
		probe("pg", deps.PG),
		probe("ch", deps.CH),
		probe("mongo", deps.Mongo),
	}
	if messages != nil {
		probes = append(probes, metahttp.Probe{Name: "messages", Ping: messages.Ready})
	}

	d := metahttp.Deps{Service: version.Info().Service, Started: time.Now(), Probes: probes}
	return modkit.NewMounted(b, nil, func(r httpkit.Router) { metahttp.Register(r, d) })
}

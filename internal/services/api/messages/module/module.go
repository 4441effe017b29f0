// Package module wires message search into the API using modkit
package module

import (
	modkit "garden/internal/modkit"
	"garden/internal/modkit/httpkit"
	"garden/internal/services/api/messages/domain"
	msghttp "garden/internal/services/api/messages/http"
)

// New constructs the messages API module over svc
func New(deps modkit.Deps, svc domain.ServicePort, opts ...modkit.Option) modkit.Module {
	if svc == nil {
		panic("api messages module requires a service")
	}
	b := modkit.Build(append([]modkit.Option{modkit.WithName("api.messages"), modkit.WithPrefix("/messages")}, opts...)...)
	return modkit.NewMounted(b, svc, func(r httpkit.Router) {
		msghttp.Register(r, svc)
	})
}

// Package module wires attendance queries into the API using modkit
package module

import (
	modkit "garden/internal/modkit"
	"garden/internal/modkit/httpkit"
	"garden/internal/services/api/attendance/domain"
	atthttp "garden/internal/services/api/attendance/http"
)

// New constructs the attendance API module over svc. The port set is svc
func New(deps modkit.Deps, svc domain.ServicePort, opts ...modkit.Option) modkit.Module {
	if svc == nil {
		panic("api attendance module requires a service")
	}
	b := modkit.Build(append([]modkit.Option{modkit.WithName("api.attendance"), modkit.WithPrefix("/attendance")}, opts...)...)
	return modkit.NewMounted(b, svc, func(r httpkit.Router) {
		atthttp.Register(r, svc)
	})
}

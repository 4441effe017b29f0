// Package api provides the HTTP API for the application
package api

import (
	"fmt"
	"time"

	"garden/internal/adapters/roster"
	"garden/internal/platform/config"
	"garden/internal/platform/logger"
	"garden/internal/platform/metrics"
	phttp "garden/internal/platform/net/http"
	"garden/internal/platform/store"

	"garden/internal/modkit"
	"garden/internal/modkit/httpkit"
	"garden/internal/modkit/module"
	"garden/internal/modkit/swaggerkit"

	apiatt "garden/internal/services/api/attendance/module"
	apimsg "garden/internal/services/api/messages/module"
	metamod "garden/internal/services/api/meta/module"
	attmod "garden/internal/services/attendance/module"
	msgmod "garden/internal/services/messages/module"
)

// Options are the API options. Config is the unprefixed root; modules take their own prefixes
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Roster         *roster.Roster
	Metrics        *metrics.Manager
	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool
	SlowRequest    time.Duration
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) error {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg:     opt.Config,
		Metrics: opt.Metrics,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
		deps.Mongo = opt.Store.Mongo
	}

	messages, err := msgmod.New(deps)
	if err != nil {
		return err
	}
	att, err := attmod.New(deps, opt.Roster, messages, attmod.FromConfig(deps.Cfg))
	if err != nil {
		return err
	}
	module.Register(messages.Name(), messages.Ports())
	module.Register(att.Name(), att.Ports())

	// http modules resolve the services they front through the registry
	msgPorts, err := portsOf[msgmod.Ports](messages.Name())
	if err != nil {
		return err
	}
	attPorts, err := portsOf[attmod.Ports](att.Name())
	if err != nil {
		return err
	}

	mods := []module.Module{
		metamod.New(deps, msgPorts.Store),
		apiatt.New(deps, attPorts.Service),
		apimsg.New(deps, msgPorts.Service),
	}

	stack := httpkit.CommonStack(httpkit.StackOptions{
		Slow:    opt.SlowRequest,
		Observe: opt.Metrics.HTTPRequest,
		Origins: opt.Config.Prefix("CORE_API_").MayCSV("CORS_ORIGINS", nil),
	})

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})

	swaggerkit.Mount(r, swaggerkit.Options{
		Enabled:     opt.EnableSwagger,
		TitleSuffix: opt.Config.Prefix("CORE_API_").MayString("DOCS_TITLE_SUFFIX", ""),
	})
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
	if opt.EnableMetrics && opt.Metrics != nil {
		r.Handle("/metrics", opt.Metrics.Handler())
	}
	return nil
}

func portsOf[T any](name string) (T, error) {
	p, ok := module.PortsAs[T](name)
	if !ok {
		return p, fmt.Errorf("api: module %q has no %T ports registered", name, p)
	}
	return p, nil
}

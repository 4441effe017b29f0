// Command garden-api serves attendance queries and message search over the
// migrated chat archive
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"garden/internal/adapters/roster"
	"garden/internal/platform/config"
	"garden/internal/platform/logger"
	"garden/internal/platform/metrics"
	phttp "garden/internal/platform/net/http"
	"garden/internal/platform/store"

	"garden/internal/services/api"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional, real env wins
	_ = godotenv.Load()

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	// bring up logging early
	l := logger.Get()

	r, err := roster.Load(roster.PathFromEnv())
	if err != nil {
		l.Fatal().Err(err).Msg("roster.Load failed")
	}

	st, err := store.Open(context.Background(), store.FromEnv(root, "api"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// reads CORE_API_PORT and CORE_API_SHUTDOWN_GRACE
	srv := phttp.NewServer(apiCfg)

	err = api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			Roster:         r,
			Metrics:        metrics.New(),
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
			EnableMetrics:  apiCfg.MayBool("METRICS", true),
			SlowRequest:    apiCfg.MayDuration("SLOW_REQUEST", 0),
		},
	)
	if err != nil {
		l.Fatal().Err(err).Msg("api.Mount failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}

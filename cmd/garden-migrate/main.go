package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"garden/internal/modkit"
	"garden/internal/platform/config"
	"garden/internal/platform/logger"
	"garden/internal/platform/metrics"
	"garden/internal/platform/store"

	migratemod "garden/internal/services/migrate/module"
	msgmod "garden/internal/services/messages/module"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var (
		fFile   = flag.String("file", "slack_messages.bson", "bson dump to migrate")
		fDryRun = flag.Bool("dry-run", false, "read and normalize without writing")
		fBatch  = flag.Int("batch", 0, "override CORE_MIGRATE_BATCH_SIZE")
	)
	flag.Parse()

	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.FromEnv(root, "migrate"), store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	if err := st.Guard(ctx); err != nil {
		l.Fatal().Err(err).Msg("backend not reachable")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{
		Cfg:     root,
		PG:      st.PG,
		CH:      st.CH,
		Mongo:   st.Mongo,
		Log:     *l,
		Metrics: metrics.New(),
	}

	messages, err := msgmod.New(deps)
	if err != nil {
		l.Fatal().Err(err).Msg("messages module")
	}

	opts := migratemod.FromConfig(root)
	if *fDryRun {
		opts.DryRun = true
	}
	if *fBatch > 0 {
		opts.BatchSize = *fBatch
	}
	m := migratemod.New(deps, messages, opts, os.Stdout)

	sum, err := m.Service().Run(ctx, *fFile)
	if err != nil {
		l.Fatal().Err(err).Str("run_id", sum.RunID).Str("file", *fFile).Msg("migrate failed")
	}
	if sum.ReadFault != "" {
		l.Warn().Str("run_id", sum.RunID).Str("fault", sum.ReadFault).Msg("scan ended early")
	}
}

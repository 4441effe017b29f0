package module

import (
	"context"
	"testing"
	"time"

	"garden/internal/modkit"
	"garden/internal/platform/config"
	"garden/internal/platform/store"
	msgmod "garden/internal/services/messages/module"
)

type nopTx struct{ store.RowQuerier }

func (nopTx) Tx(context.Context, func(store.RowQuerier) error) error { return nil }

func TestFromConfig(t *testing.T) {
	t.Setenv("CORE_MIGRATE_BATCH_SIZE", "250")
	t.Setenv("CORE_MIGRATE_DRY_RUN", "true")
	o := FromConfig(config.New())
	if o.BatchSize != 250 || !o.DryRun || o.SampleRows != 5 || o.MaxRetries != 1 || o.LeaseTTL != 6*time.Hour {
		t.Fatalf("options = %+v", o)
	}
}

func TestNew_LeaseOnlyForPG(t *testing.T) {
	opts := msgmod.FromConfig(config.New())

	opts.Backend = msgmod.BackendMem
	mem, err := msgmod.NewWithOptions(modkit.Deps{}, opts)
	if err != nil {
		t.Fatal(err)
	}
	m := New(modkit.Deps{}, mem, FromConfig(config.New()), nil)
	if m.Service().Lease != nil || m.Name() != "migrate" {
		t.Fatalf("memory backend must not lease: %+v", m.Service())
	}
	if _, ok := m.Ports().(Ports); !ok {
		t.Fatalf("ports = %T", m.Ports())
	}

	opts.Backend = msgmod.BackendPG
	deps := modkit.Deps{PG: nopTx{}}
	pg, err := msgmod.NewWithOptions(deps, opts)
	if err != nil {
		t.Fatal(err)
	}
	m = New(deps, pg, FromConfig(config.New()), nil)
	if m.Service().Lease == nil || m.Service().Target != "garden6.slack_messages" {
		t.Fatalf("pg backend lease target = %q", m.Service().Target)
	}
}

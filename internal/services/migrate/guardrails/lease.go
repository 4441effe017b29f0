package guardrails

import (
	"context"
	"errors"
	"time"

	"garden/internal/modkit/repokit"
	perr "garden/internal/platform/errors"
	"garden/internal/platform/logger"
)

// ErrLeaseHeld signals another migration owns the target
var ErrLeaseHeld = errors.New("migrate: target lease already held")

const leaseDDL = `
create table if not exists migrate_leases (
	target      text primary key,
	run_id      text not null,
	acquired_at timestamptz not null default now()
)`

// MakeLease returns a lease backed by the migrate_leases table.
// A row claims the target until do returns; a claim older than ttl is
// considered abandoned and may be taken over. A live claim yields ErrLeaseHeld
func MakeLease(db repokit.TxRunner) func(ctx context.Context, target string, ttl time.Duration, do func(context.Context) error) error {
	return func(ctx context.Context, target string, ttl time.Duration, do func(context.Context) error) error {
		runID := logger.RunID(ctx)
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}

		var claimed bool
		err := db.Tx(ctx, func(q repokit.Queryer) error {
			if _, err := q.Exec(ctx, leaseDDL); err != nil {
				return err
			}
			rows, err := q.Query(ctx, `
				insert into migrate_leases (target, run_id)
				values ($1, $2)
				on conflict (target) do update
				set run_id = excluded.run_id, acquired_at = now()
				where migrate_leases.acquired_at < now() - make_interval(secs => $3)
				returning true
			`, target, runID, ttl.Seconds())
			if err != nil {
				return err
			}
			defer rows.Close()
			if rows.Next() {
				claimed = true
			}
			return rows.Err()
		})
		if err != nil {
			return perr.FromPostgres(err, "claim migration lease")
		}
		if !claimed {
			return ErrLeaseHeld
		}

		defer func() {
			// released even when ctx is already canceled
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if _, err := db.Exec(rctx, `delete from migrate_leases where target = $1 and run_id = $2`, target, runID); err != nil {
				logger.C(ctx).Warn().Err(err).Str("target", target).Msg("migrate: lease release failed")
			}
		}()
		return do(ctx)
	}
}

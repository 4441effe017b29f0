// Package guardrails holds cross cutting safety helpers for migrations
package guardrails

import (
	"context"
	"time"
)

// Timeouts is an optional budget bundle for one migration run.
// Zero values mean no extra timeout at that level
type Timeouts struct {
	// Run is the overall budget for the whole migration
	Run time.Duration

	// Read caps the dump scan and normalize step
	Read time.Duration

	// Batch caps a single batch write including its count checks
	Batch time.Duration
}

// WithRun returns a context limited by the run budget without extending any parent deadline
func WithRun(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Run)
}

// ForRead returns a sub context for the read phase bounded by Read and any remaining parent budget
func ForRead(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Read)
}

// ForBatch returns a sub context for one batch bounded by Batch and any remaining parent budget
func ForBatch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Batch)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		d := time.Until(dl)
		if d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout chooses the tighter of the requested duration and any parent remainder.
// When d is zero it returns a simple cancelable child inheriting the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}

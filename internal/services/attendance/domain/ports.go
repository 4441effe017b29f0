package domain

import (
	"context"
)

// BucketRepo persists materialized buckets and per member cursors
type BucketRepo interface {
	// EnsureSchema creates the bucket tables when missing
	EnsureSchema(ctx context.Context) error

	Dates(ctx context.Context, user string) ([]Date, error)
	Buckets(ctx context.Context, user string) (Buckets, error)
	Cursor(ctx context.Context, user string) (Cursor, bool, error)

	// FirstOn returns the first entry of every member that has a bucket on day
	FirstOn(ctx context.Context, day Date) (map[string]Entry, error)

	// Apply appends added entries and moves the cursor from prev to next.
	// A cursor that moved since prev was read is an ErrorCodeConflict
	Apply(ctx context.Context, user string, added Buckets, prev *Cursor, next Cursor) error

	// Clear drops every bucket and the cursor of user
	Clear(ctx context.Context, user string) error
}

// Exporter writes attendance rows to the analytics sink
type Exporter interface {
	Export(ctx context.Context, rows []ExportRow) error
}

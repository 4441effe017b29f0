package domain

import "context"

// Store is the read and write contract over the raw message store
// Upserts are no-ops on a ts collision
type Store interface {
	Find(ctx context.Context, q Query) ([]RawMessage, error)
	Upsert(ctx context.Context, m RawMessage) (inserted bool, err error)
	UpsertBatch(ctx context.Context, ms []RawMessage) (inserted int, err error)
	Count(ctx context.Context) (int64, error)

	// Ready returns an ErrorCodeSchemaMissing error when the target
	// namespace does not exist
	Ready(ctx context.Context) error

	// Purge removes every message and returns how many were removed
	Purge(ctx context.Context) (int64, error)

	// Backend names the adapter, pg or mongo
	Backend() string
}

// Finder is the read half used by the attendance engine
type Finder interface {
	Find(ctx context.Context, q Query) ([]RawMessage, error)
}

package domain

import (
	"context"
	"time"
)

// RunnerPort is the public port exposed by the module
type RunnerPort interface {
	Run(ctx context.Context, path string) (Summary, error)
}

// ReaderPort streams dump documents. Next returns io.EOF at the end of
// the scan; Err reports the fault that ended it early, if any
type ReaderPort interface {
	Next() (Document, error)
	Err() error
	Close() error
	Stats() (docs int, bytes int64)
}

// Source opens a dump file
type Source interface {
	Open(path string) (ReaderPort, error)
}

// Normalizer maps one document to a record or rejects it
type Normalizer interface {
	Normalize(doc Document) (Record, error)
}

// Lease guards a target while do runs
type Lease func(ctx context.Context, target string, ttl time.Duration, do func(context.Context) error) error

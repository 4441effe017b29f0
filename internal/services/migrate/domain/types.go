// Package domain holds the types and ports of the dump migration pipeline
package domain

import (
	"time"

	"garden/internal/adapters/bsondump"
	msgdom "garden/internal/services/messages/domain"
)

// Document re-exports the decoded dump document shape
type Document = bsondump.Document

// Record is a normalized message ready for the store
type Record = msgdom.RawMessage

// Progress is reported after every committed batch
type Progress struct {
	Processed int // records handed to the store so far
	Total     int // normalized records in this run
	BatchSize int // records in this batch
	Inserted  int // rows that were new, from the count delta
}

// Sample is one stored row shown in the summary
type Sample struct {
	OccurredAt time.Time
	Author     string
	Text       string
}

// Summary describes a finished run
type Summary struct {
	RunID      string
	Source     string
	Backend    string
	DryRun     bool
	Read       int    // documents decoded from the dump
	Skipped    int    // documents rejected by the normalizer
	Total      int    // records that reached the batch stage
	Inserted   int    // rows that were new
	Batches    int
	ReadFault  string // set when the scan ended on a framing or decode error
	FinalCount int64
	Samples    []Sample
	Elapsed    time.Duration
}

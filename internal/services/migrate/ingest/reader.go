// Package ingest adapts the dump reader and the record normalizer to the
// migration ports
package ingest

import (
	"garden/internal/adapters/bsondump"
	"garden/internal/services/migrate/domain"
)

// fileSource adapts bsondump.Open to domain.Source
type fileSource struct{}

// NewSource returns a Source over files on disk
func NewSource() domain.Source { return fileSource{} }

func (fileSource) Open(path string) (domain.ReaderPort, error) {
	r, err := bsondump.Open(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

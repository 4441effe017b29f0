package bsondump

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	perr "garden/internal/platform/errors"
	"garden/internal/platform/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	prefixLen = 4
	// smallest legal document: length prefix plus the trailing NUL
	minDocSize = 5
	// mongod caps documents at 16MiB; leave headroom for dump tooling
	maxDocSize    = 16*1024*1024 + 16*1024
	sampleRawMax  = 512
	readBufferLen = 256 * 1024
)

// Document is one decoded record with driver types flattened to plain Go
// values (map[string]any, []any, string, numbers, bool, time.Time, nil)
type Document = map[string]any

// Reader yields documents one frame at a time
type Reader struct {
	r       io.ReadCloser
	br      *bufio.Reader
	log     *logger.Logger
	done    bool
	fault   error
	docs    int
	bytes   int64
	sampled bool
}

// Open opens path for streaming. A missing file is a NotFound error
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "dump file %s not found", path)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "open dump file %s", path)
	}
	return NewReader(f), nil
}

// NewReader wraps an already opened stream
func NewReader(r io.ReadCloser) *Reader {
	return &Reader{
		r:   r,
		br:  bufio.NewReaderSize(r, readBufferLen),
		log: logger.Named("bsondump"),
	}
}

// Next returns the next document, or io.EOF when the stream is exhausted
// or abandoned after a framing/decode fault
func (rd *Reader) Next() (Document, error) {
	if rd.done {
		return nil, io.EOF
	}

	var prefix [prefixLen]byte
	n, err := io.ReadFull(rd.br, prefix[:])
	switch {
	case n == 0 && errors.Is(err, io.EOF):
		return rd.finish(nil)
	case err != nil:
		return rd.finish(perr.Wrapf(err, perr.ErrorCodeDecode,
			"truncated length prefix after %d documents (%d of %d bytes)", rd.docs, n, prefixLen))
	}

	size := binary.LittleEndian.Uint32(prefix[:])
	if size < minDocSize || size > maxDocSize {
		return rd.finish(perr.Decodef("document %d: implausible length %d", rd.docs, size))
	}

	buf := make([]byte, size)
	copy(buf, prefix[:])
	if _, err := io.ReadFull(rd.br, buf[prefixLen:]); err != nil {
		return rd.finish(perr.Wrapf(err, perr.ErrorCodeDecode,
			"document %d truncated: want %d bytes", rd.docs, size))
	}

	raw := bson.Raw(buf)
	if err := raw.Validate(); err != nil {
		return rd.finish(perr.Wrapf(err, perr.ErrorCodeDecode, "document %d invalid", rd.docs))
	}
	var d bson.D
	if err := bson.Unmarshal(buf, &d); err != nil {
		return rd.finish(perr.Wrapf(err, perr.ErrorCodeDecode, "document %d decode", rd.docs))
	}

	rd.docs++
	rd.bytes += int64(size)

	if !rd.sampled {
		rd.sampled = true
		rd.log.Debug().
			Uint32("doc_bytes", size).
			Str("sample", truncate(raw.String(), sampleRawMax)).
			Msg("bsondump: sample document")
	}

	return Plain(d).(map[string]any), nil
}

// finish marks the reader exhausted; a non-nil fault is logged and kept
func (rd *Reader) finish(fault error) (Document, error) {
	rd.done = true
	if fault != nil {
		rd.fault = fault
		rd.log.Error().Err(fault).
			Int("documents", rd.docs).
			Int64("bytes", rd.bytes).
			Msg("bsondump: scan abandoned")
	}
	return nil, io.EOF
}

// Err returns the fault that ended the scan early, nil after a clean end
func (rd *Reader) Err() error { return rd.fault }

// Close closes the underlying stream
func (rd *Reader) Close() error {
	if rd.r == nil {
		return nil
	}
	return rd.r.Close()
}

// Stats returns documents decoded and bytes consumed so far
func (rd *Reader) Stats() (docs int, bytes int64) { return rd.docs, rd.bytes }

// ReadAll drains r. It exists for tests and small files
func ReadAll(r io.ReadCloser) ([]Document, error) {
	rd := NewReader(r)
	defer func() { _ = rd.Close() }()
	var out []Document
	for {
		d, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return out, rd.Err()
		}
		if err != nil {
			return out, fmt.Errorf("bsondump: %w", err)
		}
		out = append(out, d)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	i := max
	for i > 0 && (s[i]&0xC0) == 0x80 {
		i--
	}
	return s[:i] + "..."
}

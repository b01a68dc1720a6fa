package timeline

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"strings"
	"time"

	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

// ReaderID names the reader that produced an event. It is persisted with the
// event so conversions still work after a timeline is reloaded.
type ReaderID string

// Record is one timestamped payload produced by a reader.
type Record struct {
	Timestamp time.Time
	Payload   httpmsg.Payload
}

// Reader turns one input file into a finite sequence of records.
//
// A non-nil error in the sequence reports a record or file the reader could
// not use. The reader keeps going after record errors and stops after file
// errors. Answers refs set by a reader index only successfully yielded records.
type Reader interface {
	ID() ReaderID
	Suffixes() []string
	Read(ctx context.Context, path string) iter.Seq2[Record, error]
}

// Converter is implemented by readers that can coerce their own payloads
// into another kind on demand.
type Converter interface {
	CanConvert(from, to httpmsg.Kind) bool
	Convert(p httpmsg.Payload, to httpmsg.Kind) (httpmsg.Payload, error)
}

// Registry resolves readers by file suffix and by id.
type Registry struct {
	readers  []Reader
	bySuffix map[string]Reader
	byID     map[ReaderID]Reader
}

// NewRegistry builds a registry from a static reader list. Later readers win
// when two claim the same suffix.
func NewRegistry(readers ...Reader) *Registry {
	r := &Registry{
		bySuffix: make(map[string]Reader),
		byID:     make(map[ReaderID]Reader),
	}
	for _, reader := range readers {
		r.readers = append(r.readers, reader)
		r.byID[reader.ID()] = reader
		for _, suffix := range reader.Suffixes() {
			r.bySuffix[normalizeSuffix(suffix)] = reader
		}
	}
	return r
}

// ForPath returns the reader registered for the file's suffix.
func (r *Registry) ForPath(path string) (Reader, error) {
	suffix := normalizeSuffix(filepath.Ext(path))
	if reader, ok := r.bySuffix[suffix]; ok && suffix != "" {
		return reader, nil
	}
	return nil, fmt.Errorf("%w: %q for %s", sharedErrors.ErrUnsupportedFileType, filepath.Ext(path), path)
}

// ByID returns the reader with the given id.
func (r *Registry) ByID(id ReaderID) (Reader, bool) {
	reader, ok := r.byID[id]
	return reader, ok
}

// Readers lists registered readers in registration order.
func (r *Registry) Readers() []Reader {
	out := make([]Reader, len(r.readers))
	copy(out, r.readers)
	return out
}

// converter returns the reader's conversion capability, if it has one.
func (r *Registry) converter(id ReaderID) (Converter, bool) {
	if r == nil {
		return nil, false
	}
	reader, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	conv, ok := reader.(Converter)
	return conv, ok
}

func normalizeSuffix(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "."))
}

package timeline

import (
	"context"
	"errors"
	"iter"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
	"github.com/khanhnv2901/seca-traffic/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

// Event is one ingested payload. Events are immutable once added.
type Event struct {
	Timestamp     time.Time
	Reader        ReaderID
	SourceFile    string
	SequenceIndex int
	Payload       httpmsg.Payload
}

// Ref identifies the event inside its source file.
func (e Event) Ref() httpmsg.Ref {
	return httpmsg.Ref{File: e.SourceFile, Index: e.SequenceIndex}
}

// before orders events by timestamp, then source file, then sequence index.
func before(a, b Event) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	if a.SourceFile != b.SourceFile {
		return a.SourceFile < b.SourceFile
	}
	return a.SequenceIndex < b.SequenceIndex
}

// Item is what Iterate yields: an event's position plus its payload coerced
// to the requested kind.
type Item struct {
	Timestamp     time.Time
	SourceFile    string
	SequenceIndex int
	Payload       httpmsg.Payload
}

// Ref identifies the event the item came from.
func (i Item) Ref() httpmsg.Ref {
	return httpmsg.Ref{File: i.SourceFile, Index: i.SequenceIndex}
}

// Timeline keeps events sorted by (timestamp, source file, sequence index).
//
// It is built once by a single goroutine and is safe for concurrent Iterate
// calls afterwards.
type Timeline struct {
	events   []Event
	byRef    map[httpmsg.Ref]Event
	registry *Registry
	logger   *zap.SugaredLogger
	skipLog  *rate.Sometimes
}

// New returns an empty timeline. registry may be nil when no conversions are
// needed.
func New(registry *Registry, logger *zap.SugaredLogger) *Timeline {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Timeline{
		byRef:    make(map[httpmsg.Ref]Event),
		registry: registry,
		logger:   logger,
		skipLog:  &rate.Sometimes{First: constants.SkipLogBurst, Interval: constants.SkipLogInterval},
	}
}

func compareEvents(a, b Event) int {
	switch {
	case before(a, b):
		return -1
	case before(b, a):
		return 1
	}
	return 0
}

// Add inserts e after every event that does not sort after it.
func (t *Timeline) Add(e Event) {
	i, _ := slices.BinarySearchFunc(t.events, e, func(existing, target Event) int {
		if before(target, existing) {
			return 1
		}
		return -1
	})
	t.events = slices.Insert(t.events, i, e)
	t.byRef[e.Ref()] = e
}

// AddAll appends every event and restores the order with one sort.
func (t *Timeline) AddAll(events []Event) {
	for _, e := range events {
		t.appendUnsorted(e)
	}
	t.sort()
}

func (t *Timeline) appendUnsorted(e Event) {
	t.events = append(t.events, e)
	t.byRef[e.Ref()] = e
}

func (t *Timeline) sort() {
	slices.SortStableFunc(t.events, compareEvents)
}

// Len returns the number of stored events.
func (t *Timeline) Len() int {
	return len(t.events)
}

// Events returns a copy of the ordered events.
func (t *Timeline) Events() []Event {
	return slices.Clone(t.events)
}

// All yields every event in order.
func (t *Timeline) All() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for _, e := range t.events {
			if !yield(e) {
				return
			}
		}
	}
}

// Lookup finds an event by its source ref.
func (t *Timeline) Lookup(ref httpmsg.Ref) (Event, bool) {
	e, ok := t.byRef[ref]
	return e, ok
}

// Iterate yields every event whose payload is, or can be converted to, kind.
// Events that cannot be converted are skipped. The sequence may be ranged
// over any number of times.
func (t *Timeline) Iterate(kind httpmsg.Kind) iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, e := range t.events {
			p, ok := t.coerce(e, kind)
			if !ok {
				continue
			}
			item := Item{
				Timestamp:     e.Timestamp,
				SourceFile:    e.SourceFile,
				SequenceIndex: e.SequenceIndex,
				Payload:       p,
			}
			if !yield(item) {
				return
			}
		}
	}
}

// Count returns how many events Iterate(kind) would yield.
func (t *Timeline) Count(kind httpmsg.Kind) int {
	n := 0
	for range t.Iterate(kind) {
		n++
	}
	return n
}

// ResolveRequest returns the request a ref points at, converting raw packets
// when the owning reader supports it.
func (t *Timeline) ResolveRequest(ref *httpmsg.Ref) (*httpmsg.Request, bool) {
	if ref == nil {
		return nil, false
	}
	e, ok := t.byRef[*ref]
	if !ok {
		return nil, false
	}
	p, ok := t.convert(e, httpmsg.KindRequest)
	if !ok {
		return nil, false
	}
	req, ok := p.(*httpmsg.Request)
	return req, ok
}

// As returns e's payload as kind, converting or pairing it the way Iterate
// does.
func (t *Timeline) As(e Event, kind httpmsg.Kind) (httpmsg.Payload, bool) {
	return t.coerce(e, kind)
}

func (t *Timeline) coerce(e Event, kind httpmsg.Kind) (httpmsg.Payload, bool) {
	if e.Payload.Kind() == kind {
		return e.Payload, true
	}
	if kind == httpmsg.KindExchange {
		return t.exchange(e)
	}
	return t.convert(e, kind)
}

// exchange pairs a response event with the request it answers.
func (t *Timeline) exchange(e Event) (httpmsg.Payload, bool) {
	p, ok := t.convert(e, httpmsg.KindResponse)
	if !ok {
		return nil, false
	}
	res, ok := p.(*httpmsg.Response)
	if !ok {
		return nil, false
	}
	req, _ := t.ResolveRequest(res.Answers)
	return &httpmsg.Exchange{Request: req, Response: res}, true
}

func (t *Timeline) convert(e Event, kind httpmsg.Kind) (httpmsg.Payload, bool) {
	from := e.Payload.Kind()
	if from == kind {
		return e.Payload, true
	}
	conv, ok := t.registry.converter(e.Reader)
	if !ok || !conv.CanConvert(from, kind) {
		return nil, false
	}
	p, err := conv.Convert(e.Payload, kind)
	if errors.Is(err, sharedErrors.ErrConversionSkipped) {
		return nil, false
	}
	if err != nil {
		t.skipLog.Do(func() {
			t.logger.Warnw("skipping event that failed conversion",
				"reader", e.Reader, "file", e.SourceFile, "index", e.SequenceIndex,
				"from", from, "to", kind, "error", err)
		})
		return nil, false
	}
	return p, true
}

// Build reads every input file with the reader registered for its suffix.
// Unsupported files and bad records are logged and skipped; only context
// cancellation stops the build.
func Build(ctx context.Context, registry *Registry, logger *zap.SugaredLogger, paths []string) (*Timeline, error) {
	t := New(registry, logger)
	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		clean := filepath.Clean(path)
		if seen[clean] {
			t.logger.Warnw("skipping duplicate input file", "file", path)
			continue
		}
		seen[clean] = true
		if _, err := t.ingest(ctx, path); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			t.logger.Warnw("skipping input file", "file", path, "error", err)
		}
	}
	t.sort()
	return t, nil
}

// ingest drains one file into the timeline and returns how many events it
// added. Events are appended unsorted; Build sorts once at the end.
func (t *Timeline) ingest(ctx context.Context, path string) (int, error) {
	reader, err := t.registry.ForPath(path)
	if err != nil {
		return 0, err
	}
	t.logger.Debugw("reading input file", "file", path, "reader", reader.ID())

	index := 0
	for rec, err := range reader.Read(ctx, path) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return index, ctxErr
			}
			t.skipLog.Do(func() {
				t.logger.Warnw("skipping record", "file", path, "reader", reader.ID(), "error", err)
			})
			continue
		}
		t.appendUnsorted(Event{
			Timestamp:     rec.Timestamp,
			Reader:        reader.ID(),
			SourceFile:    path,
			SequenceIndex: index,
			Payload:       rec.Payload,
		})
		index++
	}
	t.logger.Infow("read events", "file", path, "count", index)
	return index, nil
}

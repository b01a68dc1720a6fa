package json

import (
	"context"
	"fmt"
	"sync"

	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
	"github.com/khanhnv2901/seca-traffic/internal/infrastructure/persistence/codec"
	"github.com/khanhnv2901/seca-traffic/internal/shared/constants"
)

type timelineFileDTO struct {
	FormatVersion string           `json:"format_version"`
	Events        []codec.EventDTO `json:"events"`
}

// TimelineStore implements timeline.Store with one JSON document per file.
type TimelineStore struct {
	mu sync.RWMutex
}

// NewTimelineStore creates a JSON timeline store.
func NewTimelineStore() *TimelineStore {
	return &TimelineStore{}
}

// SaveEvents writes events, in order, replacing any existing file.
func (s *TimelineStore) SaveEvents(ctx context.Context, path string, events []timeline.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dtos, err := codec.EncodeEvents(events)
	if err != nil {
		return err
	}
	if err := writeJSON(path, timelineFileDTO{FormatVersion: constants.DataFormatVersion, Events: dtos}); err != nil {
		return fmt.Errorf("failed to save timeline: %w", err)
	}
	return nil
}

// LoadEvents reads a file written by SaveEvents.
func (s *TimelineStore) LoadEvents(ctx context.Context, path string) ([]timeline.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var dto timelineFileDTO
	if err := readJSON(path, &dto); err != nil {
		return nil, err
	}
	return codec.DecodeEvents(dto.Events)
}

package timeline

import (
	"context"

	"go.uber.org/zap"
)

// Store persists the ordered events of a timeline to a single file.
type Store interface {
	SaveEvents(ctx context.Context, path string, events []Event) error
	LoadEvents(ctx context.Context, path string) ([]Event, error)
}

// Save writes the timeline through store.
func (t *Timeline) Save(ctx context.Context, store Store, path string) error {
	return store.SaveEvents(ctx, path, t.events)
}

// Load reads a timeline previously written with Save. On error no timeline is
// returned.
func Load(ctx context.Context, store Store, registry *Registry, logger *zap.SugaredLogger, path string) (*Timeline, error) {
	events, err := store.LoadEvents(ctx, path)
	if err != nil {
		return nil, err
	}
	t := New(registry, logger)
	t.AddAll(events)
	t.logger.Infow("loaded timeline", "file", path, "events", t.Len())
	return t, nil
}

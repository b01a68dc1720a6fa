package analysis

import "context"

// Repository persists analysis runs to a single file that can be loaded
// without the timeline they were computed from.
type Repository interface {
	SaveRuns(ctx context.Context, path string, runs []*Run) error
	LoadRuns(ctx context.Context, path string) ([]*Run, error)
}

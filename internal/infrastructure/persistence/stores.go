// Package persistence picks the file backend for timeline and analysis data.
package persistence

import (
	"path/filepath"
	"strings"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
	jsonstore "github.com/khanhnv2901/seca-traffic/internal/infrastructure/persistence/json"
	"github.com/khanhnv2901/seca-traffic/internal/infrastructure/persistence/sqlite"
)

// Stores routes each data file to the JSON or SQLite backend by suffix.
// Files ending in .db, .sqlite or .sqlite3 use SQLite; everything else is JSON.
type Stores struct {
	timelines *jsonstore.TimelineStore
	analyses  *jsonstore.AnalysisRepository
	sqlite    *sqlite.Store
}

// NewStores returns a router over fresh backends.
func NewStores() *Stores {
	return &Stores{
		timelines: jsonstore.NewTimelineStore(),
		analyses:  jsonstore.NewAnalysisRepository(),
		sqlite:    sqlite.NewStore(),
	}
}

// IsSQLite reports whether path is stored in SQLite.
func IsSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Timeline returns the store for a timeline data file.
func (s *Stores) Timeline(path string) timeline.Store {
	if IsSQLite(path) {
		return s.sqlite
	}
	return s.timelines
}

// Analysis returns the repository for an analysis data file.
func (s *Stores) Analysis(path string) analysis.Repository {
	if IsSQLite(path) {
		return s.sqlite
	}
	return s.analyses
}

// Package sqlite stores timelines and analysis runs in a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
	"github.com/khanhnv2901/seca-traffic/internal/infrastructure/persistence/codec"
	"github.com/khanhnv2901/seca-traffic/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	position       INTEGER PRIMARY KEY,
	timestamp      TEXT NOT NULL,
	reader         TEXT NOT NULL,
	source_file    TEXT NOT NULL,
	sequence_index INTEGER NOT NULL,
	payload        JSON NOT NULL
);
CREATE TABLE IF NOT EXISTS runs (
	position INTEGER PRIMARY KEY,
	id       TEXT NOT NULL,
	analyzer TEXT NOT NULL,
	data     JSON NOT NULL
);`

// Store implements timeline.Store and analysis.Repository. Each call opens
// the database file at path and closes it before returning.
type Store struct {
	mu sync.Mutex
}

// NewStore creates a SQLite store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate %s: %w", path, err)
	}
	return db, nil
}

// openExisting fails with ErrDataFileNotFound instead of creating path.
func (s *Store) openExisting(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", sharedErrors.ErrDataFileNotFound, path)
	}
	db, err := s.open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrCorruptData, err)
	}
	var version string
	err = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'format_version'`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s has no format version", sharedErrors.ErrCorruptData, path)
	}
	if err == nil {
		err = codec.CheckVersion(version)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}

// replace runs fill inside a transaction after clearing table and stamping
// the format version.
func (s *Store) replace(ctx context.Context, path, table string, fill func(tx *sql.Tx) error) error {
	db, err := s.open(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('format_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		constants.DataFormatVersion); err != nil {
		return fmt.Errorf("write format version: %w", err)
	}
	// table is one of the schema's constant names
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if err := fill(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	if err := os.Chmod(path, constants.DefaultFilePerm); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return nil
}

// SaveEvents replaces the stored timeline with events.
func (s *Store) SaveEvents(ctx context.Context, path string, events []timeline.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dtos, err := codec.EncodeEvents(events)
	if err != nil {
		return err
	}
	err = s.replace(ctx, path, "events", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO events (position, timestamp, reader, source_file, sequence_index, payload) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for i, dto := range dtos {
			payload, err := json.Marshal(dto.Payload)
			if err != nil {
				return fmt.Errorf("%w: %v", sharedErrors.ErrSerializationFailed, err)
			}
			if _, err := stmt.ExecContext(ctx, i, dto.Timestamp, dto.Reader, dto.SourceFile, dto.SequenceIndex, string(payload)); err != nil {
				return fmt.Errorf("failed to insert event %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save timeline: %w", err)
	}
	return nil
}

// LoadEvents reads the timeline written by SaveEvents, in order.
func (s *Store) LoadEvents(ctx context.Context, path string) ([]timeline.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.openExisting(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx,
		`SELECT timestamp, reader, source_file, sequence_index, payload FROM events ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var dtos []codec.EventDTO
	for rows.Next() {
		var dto codec.EventDTO
		var payload string
		if err := rows.Scan(&dto.Timestamp, &dto.Reader, &dto.SourceFile, &dto.SequenceIndex, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", sharedErrors.ErrCorruptData, err)
		}
		if err := json.Unmarshal([]byte(payload), &dto.Payload); err != nil {
			return nil, fmt.Errorf("%w: event %d payload: %v", sharedErrors.ErrCorruptData, len(dtos), err)
		}
		dtos = append(dtos, dto)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return codec.DecodeEvents(dtos)
}

// SaveRuns replaces the stored runs.
func (s *Store) SaveRuns(ctx context.Context, path string, runs []*analysis.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.replace(ctx, path, "runs", func(tx *sql.Tx) error {
		for i, run := range runs {
			dto, err := codec.EncodeRun(run)
			if err != nil {
				return fmt.Errorf("failed to encode run for %s: %w", run.Analyzer, err)
			}
			data, err := json.Marshal(dto)
			if err != nil {
				return fmt.Errorf("%w: %v", sharedErrors.ErrSerializationFailed, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO runs (position, id, analyzer, data) VALUES (?, ?, ?, ?)`,
				i, run.ID, run.Analyzer, string(data)); err != nil {
				return fmt.Errorf("failed to insert run %s: %w", run.Analyzer, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// LoadRuns reads the runs written by SaveRuns, in order.
func (s *Store) LoadRuns(ctx context.Context, path string) ([]*analysis.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.openExisting(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, `SELECT data FROM runs ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*analysis.Run
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("%w: %v", sharedErrors.ErrCorruptData, err)
		}
		var dto codec.RunDTO
		if err := json.Unmarshal([]byte(data), &dto); err != nil {
			return nil, fmt.Errorf("%w: run %d: %v", sharedErrors.ErrCorruptData, len(runs), err)
		}
		run, err := codec.DecodeRun(dto)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", len(runs), err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

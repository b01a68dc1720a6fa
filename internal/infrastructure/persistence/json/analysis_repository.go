package json

import (
	"context"
	"fmt"
	"sync"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/infrastructure/persistence/codec"
	"github.com/khanhnv2901/seca-traffic/internal/shared/constants"
)

type analysisFileDTO struct {
	FormatVersion string         `json:"format_version"`
	Runs          []codec.RunDTO `json:"runs"`
}

// AnalysisRepository implements analysis.Repository using JSON file storage.
type AnalysisRepository struct {
	mu sync.RWMutex
}

// NewAnalysisRepository creates a JSON analysis repository.
func NewAnalysisRepository() *AnalysisRepository {
	return &AnalysisRepository{}
}

// SaveRuns writes runs in order, replacing any existing file.
func (r *AnalysisRepository) SaveRuns(ctx context.Context, path string, runs []*analysis.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	dto := analysisFileDTO{FormatVersion: constants.DataFormatVersion, Runs: make([]codec.RunDTO, 0, len(runs))}
	for _, run := range runs {
		rd, err := codec.EncodeRun(run)
		if err != nil {
			return fmt.Errorf("failed to encode run for %s: %w", run.Analyzer, err)
		}
		dto.Runs = append(dto.Runs, rd)
	}
	if err := writeJSON(path, dto); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// LoadRuns reads a file written by SaveRuns.
func (r *AnalysisRepository) LoadRuns(ctx context.Context, path string) ([]*analysis.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var dto analysisFileDTO
	if err := readJSON(path, &dto); err != nil {
		return nil, err
	}
	runs := make([]*analysis.Run, 0, len(dto.Runs))
	for i, rd := range dto.Runs {
		run, err := codec.DecodeRun(rd)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Package traffic implements the slurp, analyze, report and clean use cases.
package traffic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/khanhnv2901/seca-traffic/internal/application/pipeline"
	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

// Storage resolves the backend for a data file path.
type Storage interface {
	Timeline(path string) timeline.Store
	Analysis(path string) analysis.Repository
}

// ReportWriter renders runs, and for some formats the timeline, to w.
type ReportWriter interface {
	Format() string
	WriteReport(w io.Writer, tl *timeline.Timeline, runs []*analysis.Run) error
}

type timelineReporter interface {
	UsesTimeline()
}

// Paths names the two data files shared by the commands.
type Paths struct {
	Timeline string
	Analysis string
}

// Service provides application-level traffic operations
type Service struct {
	readers *timeline.Registry
	storage Storage
	runner  *pipeline.Runner
	logger  *zap.SugaredLogger
}

// NewService creates a new traffic service. logger may be nil.
func NewService(readers *timeline.Registry, storage Storage, runner *pipeline.Runner, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		readers: readers,
		storage: storage,
		runner:  runner,
		logger:  logger,
	}
}

// Slurp merges the input files into one timeline and saves it.
func (s *Service) Slurp(ctx context.Context, inputs []string, timelinePath string) (*timeline.Timeline, error) {
	if len(inputs) == 0 {
		return nil, errors.New("no input files given")
	}
	tl, err := timeline.Build(ctx, s.readers, s.logger, inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to build timeline: %w", err)
	}
	if err := tl.Save(ctx, s.storage.Timeline(timelinePath), timelinePath); err != nil {
		return nil, fmt.Errorf("failed to save timeline: %w", err)
	}
	s.logger.Infow("saved timeline", "file", timelinePath, "events", tl.Len())
	return tl, nil
}

// LoadTimeline reads a timeline saved by Slurp.
func (s *Service) LoadTimeline(ctx context.Context, path string) (*timeline.Timeline, error) {
	tl, err := timeline.Load(ctx, s.storage.Timeline(path), s.readers, s.logger, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load timeline: %w", err)
	}
	return tl, nil
}

// Analyze runs the selected analyzers over the saved timeline and saves the
// runs. An empty names list selects every analyzer.
func (s *Service) Analyze(ctx context.Context, paths Paths, analyzers []analysis.Analyzer, names []string) ([]*analysis.Run, error) {
	tl, err := s.LoadTimeline(ctx, paths.Timeline)
	if err != nil {
		return nil, err
	}
	selected := pipeline.Select(analyzers, names, s.logger)

	started := time.Now()
	runs, err := s.runner.Run(ctx, tl, selected)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze timeline: %w", err)
	}
	if err := s.storage.Analysis(paths.Analysis).SaveRuns(ctx, paths.Analysis, runs); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	s.logger.Infow("saved analysis", "file", paths.Analysis, "analyzers", len(runs), "duration", time.Since(started))
	return runs, nil
}

// LoadRuns reads the runs saved by Analyze.
func (s *Service) LoadRuns(ctx context.Context, path string) ([]*analysis.Run, error) {
	runs, err := s.storage.Analysis(path).LoadRuns(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}
	return runs, nil
}

// Report renders the saved analysis with rep. The timeline is only loaded for
// formats that draw it.
func (s *Service) Report(ctx context.Context, w io.Writer, rep ReportWriter, paths Paths) error {
	runs, err := s.LoadRuns(ctx, paths.Analysis)
	if err != nil {
		return err
	}
	var tl *timeline.Timeline
	if _, ok := rep.(timelineReporter); ok {
		if tl, err = s.LoadTimeline(ctx, paths.Timeline); err != nil {
			return err
		}
	}
	if err := rep.WriteReport(w, tl, runs); err != nil {
		return fmt.Errorf("failed to write %s report: %w", rep.Format(), err)
	}
	return nil
}

// RenderReport is Report into memory.
func (s *Service) RenderReport(ctx context.Context, rep ReportWriter, paths Paths) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Report(ctx, &buf, rep, paths); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Clean removes the data files and returns the ones that existed.
func (s *Service) Clean(paths Paths) ([]string, error) {
	var removed []string
	for _, path := range []string{paths.Timeline, paths.Analysis} {
		if path == "" {
			continue
		}
		err := os.Remove(path)
		switch {
		case err == nil:
			removed = append(removed, path)
			s.logger.Infow("removed data file", "file", path)
		case errors.Is(err, os.ErrNotExist):
			s.logger.Debugw("data file already absent", "file", path)
		default:
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return removed, nil
}

// IsMissingData reports whether err means a data file has not been written
// yet, so the user should run an earlier command first.
func IsMissingData(err error) bool {
	return errors.Is(err, sharedErrors.ErrDataFileNotFound)
}

package application

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/khanhnv2901/seca-traffic/internal/application/pipeline"
	"github.com/khanhnv2901/seca-traffic/internal/application/traffic"
	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
	"github.com/khanhnv2901/seca-traffic/internal/infrastructure/analyzers"
	"github.com/khanhnv2901/seca-traffic/internal/infrastructure/persistence"
	"github.com/khanhnv2901/seca-traffic/internal/infrastructure/readers"
	"github.com/khanhnv2901/seca-traffic/internal/infrastructure/reporters"
)

// Options configure a Container.
type Options struct {
	Logger      *zap.SugaredLogger
	Parallelism int
	// OnComplete is called as each analyzer run finishes.
	OnComplete pipeline.CompleteFunc
}

// Container holds all application services and registries
// This is a simple dependency injection container
type Container struct {
	Logger *zap.SugaredLogger

	// Registries
	Readers   *timeline.Registry
	Analyzers *analyzers.Registry
	Reporters *reporters.Registry

	// Storage
	Stores *persistence.Stores

	// Services
	Runner  *pipeline.Runner
	Traffic *traffic.Service
}

// NewContainer creates a new application service container
func NewContainer(opts Options) *Container {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	readerRegistry := readers.DefaultRegistry()
	stores := persistence.NewStores()
	runner := &pipeline.Runner{
		Parallelism: opts.Parallelism,
		Logger:      logger,
		OnComplete:  opts.OnComplete,
	}

	reporterRegistry := reporters.NewRegistry(
		reporters.TextReporter{},
		reporters.JSONReporter{},
		reporters.MarkdownReporter{},
		reporters.CSVReporter{},
		reporters.NewMermaidReporter(logger),
		reporters.PDFReporter{},
	)

	return &Container{
		Logger:    logger,
		Readers:   readerRegistry,
		Analyzers: analyzers.DefaultRegistry(),
		Reporters: reporterRegistry,
		Stores:    stores,
		Runner:    runner,
		Traffic:   traffic.NewService(readerRegistry, stores, runner, logger),
	}
}

// BuildAnalyzers constructs the configured analyzers, failing on the first
// unknown name or bad section.
func (c *Container) BuildAnalyzers(names []string, sections map[string]analyzers.Section) ([]analysis.Analyzer, error) {
	built, err := c.Analyzers.Build(names, sections)
	if err != nil {
		return nil, fmt.Errorf("failed to configure analyzers: %w", err)
	}
	return built, nil
}

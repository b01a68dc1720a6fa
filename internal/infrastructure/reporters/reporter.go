// Package reporters renders analysis runs as text, JSON, Markdown, CSV,
// mermaid.js sequence diagrams and PDF.
package reporters

import (
	"fmt"
	"io"
	"sort"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

// Reporter writes one report. tl is nil unless the reporter implements
// TimelineReporter.
type Reporter interface {
	Format() string
	WriteReport(w io.Writer, tl *timeline.Timeline, runs []*analysis.Run) error
}

// TimelineReporter marks reporters that draw on the timeline itself and not
// only on analysis runs.
type TimelineReporter interface {
	Reporter
	UsesTimeline()
}

// Displayer is implemented by reporters that can show a finished report
// outside the terminal.
type Displayer interface {
	DisplayReport(report []byte) error
}

// Registry maps format names to reporters.
type Registry struct {
	reporters map[string]Reporter
}

// NewRegistry registers reporters under their Format names.
func NewRegistry(reporters ...Reporter) *Registry {
	r := &Registry{reporters: make(map[string]Reporter, len(reporters))}
	for _, rep := range reporters {
		r.reporters[rep.Format()] = rep
	}
	return r
}

// DefaultRegistry holds every built-in format.
func DefaultRegistry() *Registry {
	return NewRegistry(
		TextReporter{},
		JSONReporter{},
		MarkdownReporter{},
		CSVReporter{},
		NewMermaidReporter(nil),
		PDFReporter{},
	)
}

// Get returns the reporter for format.
func (r *Registry) Get(format string) (Reporter, error) {
	rep, ok := r.reporters[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", sharedErrors.ErrUnknownReportFormat, format, r.Formats())
	}
	return rep, nil
}

// Formats lists registered format names, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.reporters))
	for name := range r.reporters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NeedsTimeline reports whether rep reads the timeline.
func NeedsTimeline(rep Reporter) bool {
	_, ok := rep.(TimelineReporter)
	return ok
}

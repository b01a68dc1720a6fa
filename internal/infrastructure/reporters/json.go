package reporters

import (
	"encoding/json"
	"io"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
)

// JSONReporter writes {"summary": {description: summary}}. Runs sharing a
// description are keyed as "description [analyzer]" so none is overwritten.
type JSONReporter struct{}

func (JSONReporter) Format() string { return "json" }

func (JSONReporter) WriteReport(w io.Writer, _ *timeline.Timeline, runs []*analysis.Run) error {
	shared := make(map[string]int, len(runs))
	for _, run := range runs {
		shared[run.Description]++
	}
	summary := make(map[string]analysis.Summary, len(runs))
	for _, run := range runs {
		key := run.Description
		if shared[key] > 1 {
			key += " [" + run.Analyzer + "]"
		}
		summary[key] = run.Summary
	}
	return json.NewEncoder(w).Encode(struct {
		Summary map[string]analysis.Summary `json:"summary"`
	}{Summary: summary})
}

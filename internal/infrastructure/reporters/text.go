package reporters

import (
	"bufio"
	"fmt"
	"io"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
)

// TextReporter prints one summary line per analyzer.
type TextReporter struct{}

func (TextReporter) Format() string { return "text" }

func (TextReporter) WriteReport(w io.Writer, _ *timeline.Timeline, runs []*analysis.Run) error {
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "Summary:\n\n")
	for _, run := range runs {
		s := run.Summary
		fmt.Fprintf(bw, "%s: %d passed, %d failed; %d matched\n", run.Description, s.Passed, s.Failed, s.Matched)
	}
	return bw.Flush()
}

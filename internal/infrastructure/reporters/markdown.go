package reporters

import (
	"embed"
	"io"
	"text/template"
	"time"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
)

const (
	markdownTemplatePath = "templates/report.md"
	maxFailuresListed    = 20
)

//go:embed templates/report.md
var reportTemplateFS embed.FS

var markdownReportTemplate = template.Must(
	template.New("report.md").Funcs(template.FuncMap{
		"formatTime": formatShortTimestamp,
	}).ParseFS(reportTemplateFS, markdownTemplatePath),
)

type markdownRun struct {
	Description   string
	Summary       analysis.Summary
	Failures      []analysis.FailureCount
	FailedResults []analysis.Result
	Omitted       int
}

func formatShortTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05Z")
}

// MarkdownReporter renders a summary table and the first failures of each
// analyzer.
type MarkdownReporter struct{}

func (MarkdownReporter) Format() string { return "markdown" }

func (MarkdownReporter) WriteReport(w io.Writer, _ *timeline.Timeline, runs []*analysis.Run) error {
	data := struct{ Runs []markdownRun }{}
	for _, run := range runs {
		mr := markdownRun{
			Description: run.Description,
			Summary:     run.Summary,
			Failures:    run.FailuresByKind(),
		}
		for _, res := range run.Results {
			if !res.Outcome.Failed() {
				continue
			}
			if len(mr.FailedResults) == maxFailuresListed {
				mr.Omitted++
				continue
			}
			mr.FailedResults = append(mr.FailedResults, res)
		}
		data.Runs = append(data.Runs, mr)
	}
	return markdownReportTemplate.Execute(w, data)
}

package reporters

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
)

var csvHeader = []string{"analyzer", "timestamp", "file", "index", "status", "failure", "detail"}

// CSVReporter writes one row per evaluated event.
type CSVReporter struct{}

func (CSVReporter) Format() string { return "csv" }

func (CSVReporter) WriteReport(w io.Writer, _ *timeline.Timeline, runs []*analysis.Run) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, run := range runs {
		for _, res := range run.Results {
			status, kind, detail := "pass", "", ""
			if f := res.Outcome.Failure; f != nil {
				status, kind, detail = "fail", string(f.Kind), f.Detail
			}
			row := []string{
				run.Analyzer,
				res.Timestamp.UTC().Format(time.RFC3339Nano),
				res.Ref.File,
				strconv.Itoa(res.Ref.Index),
				status,
				kind,
				detail,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

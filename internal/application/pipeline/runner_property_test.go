//go:build property
// +build property

package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
)

func statusTimeline(statuses []int) *timeline.Timeline {
	tl := timeline.New(nil, nil)
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, s := range statuses {
		tl.Add(timeline.Event{
			Timestamp:     epoch.Add(time.Duration(i) * time.Second),
			Reader:        "har",
			SourceFile:    "a.har",
			SequenceIndex: i,
			Payload:       &httpmsg.Response{Version: "HTTP/1.1", Status: s},
		})
	}
	return tl
}

// TestScanIdempotent verifies rescanning the same timeline yields the same
// summary, and the summary only counts evaluated events.
func TestScanIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("scan is repeatable and counts only evaluated events", prop.ForAll(
		func(statuses []int, parallelism int) bool {
			tl := statusTimeline(statuses)
			a := newStatusAnalyzer("status")
			r := &Runner{Parallelism: parallelism}

			first, err := r.Run(context.Background(), tl, []analysis.Analyzer{a})
			if err != nil {
				return false
			}
			second, err := r.Run(context.Background(), tl, []analysis.Analyzer{a})
			if err != nil {
				return false
			}

			evaluated, failed := 0, 0
			for _, s := range statuses {
				if s == 204 {
					continue
				}
				evaluated++
				if s >= 400 {
					failed++
				}
			}
			s1, s2 := first[0].Summary, second[0].Summary
			return s1 == s2 &&
				s1.Matched == evaluated &&
				s1.Failed == failed &&
				s1.Passed+s1.Failed == s1.Matched
		},
		gen.SliceOf(gen.OneConstOf(200, 204, 301, 404, 500)),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}

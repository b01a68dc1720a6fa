package analysis

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
)

// Result is one evaluated event.
type Result struct {
	Timestamp time.Time
	Ref       httpmsg.Ref
	Payload   httpmsg.Payload
	Outcome   Outcome
}

// Summary aggregates a result list. Passed + Failed == Matched always.
type Summary struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Matched int `json:"matched"`
}

// Summarize counts results. Only evaluated events are results, so matched
// never includes skipped or unconverted events.
func Summarize(results []Result) Summary {
	failed := 0
	for _, r := range results {
		if r.Outcome.Failed() {
			failed++
		}
	}
	return Summary{
		Passed:  len(results) - failed,
		Failed:  failed,
		Matched: len(results),
	}
}

// Run is the output of one analyzer over one timeline.
type Run struct {
	ID          string
	Analyzer    string
	Description string
	StartedAt   time.Time
	CompletedAt time.Time
	// Finished is true when the analyzer stopped the scan early.
	Finished bool
	Results  []Result
	Summary  Summary
}

// NewRun starts a run for the analyzer.
func NewRun(a Analyzer, startedAt time.Time) *Run {
	return &Run{
		ID:          uuid.NewString(),
		Analyzer:    a.Name(),
		Description: a.String(),
		StartedAt:   startedAt,
		Results:     []Result{},
	}
}

// Append records one result.
func (r *Run) Append(res Result) {
	r.Results = append(r.Results, res)
}

// Complete stamps the run and derives its summary.
func (r *Run) Complete(at time.Time, finished bool) {
	r.CompletedAt = at
	r.Finished = finished
	r.Summary = Summarize(r.Results)
}

// FailureCount is how many results failed with one kind.
type FailureCount struct {
	Kind  FailureKind
	Count int
}

// FailuresByKind tallies failures, most frequent first.
func (r *Run) FailuresByKind() []FailureCount {
	counts := make(map[FailureKind]int)
	for _, res := range r.Results {
		if res.Outcome.Failure != nil {
			counts[res.Outcome.Failure.Kind]++
		}
	}
	out := make([]FailureCount, 0, len(counts))
	for kind, n := range counts {
		out = append(out, FailureCount{Kind: kind, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

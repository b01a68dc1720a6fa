//go:build property
// +build property

package analysis_test

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
)

// TestSummaryInvariant verifies Summarize always balances.
// Property: passed + failed == matched == len(results)
func TestSummaryInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("passed + failed == matched", prop.ForAll(
		func(failures []bool) bool {
			results := make([]analysis.Result, len(failures))
			want := 0
			for i, failed := range failures {
				results[i].Outcome = analysis.Pass(i)
				if failed {
					results[i].Outcome = analysis.Fail(analysis.MissingCookieFlag, "")
					want++
				}
			}
			s := analysis.Summarize(results)
			return s.Failed == want &&
				s.Passed+s.Failed == s.Matched &&
				s.Matched == len(results)
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("failure tallies add up to failed", prop.ForAll(
		func(kinds []int) bool {
			all := []analysis.FailureKind{analysis.MissingCookieFlag, analysis.MissingCookiePrefix, analysis.InvalidOpenAPISpec}
			run := &analysis.Run{}
			for _, k := range kinds {
				run.Append(analysis.Result{Outcome: analysis.Fail(all[k], "")})
			}
			run.Complete(time.Time{}, false)

			total := 0
			prev := -1
			for _, fc := range run.FailuresByKind() {
				if prev >= 0 && fc.Count > prev {
					return false
				}
				prev = fc.Count
				total += fc.Count
			}
			return total == run.Summary.Failed
		},
		gen.SliceOf(gen.IntRange(0, 2)),
	))

	properties.TestingRun(t)
}

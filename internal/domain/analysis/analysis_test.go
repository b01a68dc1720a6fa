package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
)

type stubAnalyzer struct {
	Base
}

func (s *stubAnalyzer) CanAnalyze(httpmsg.Payload) bool { return true }

func (s *stubAnalyzer) Analyze(httpmsg.Payload) (Outcome, error) {
	s.Finish()
	return Pass("ok"), nil
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Outcome: Pass("a")},
		{Outcome: Fail(MissingCookieFlag, "")},
		{Outcome: Fail(MissingCookiePrefix, "sid")},
		{Outcome: Pass(nil)},
		{Outcome: Pass([]string{})},
	}
	s := Summarize(results)
	assert.Equal(t, Summary{Passed: 3, Failed: 2, Matched: 5}, s)
	assert.Equal(t, s.Matched, s.Passed+s.Failed)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "pass: foo-3", Pass("foo-3").String())
	assert.Equal(t, "fail: MissingAuthHeader", Fail(MissingAuthHeader, "").String())
	assert.Equal(t, "fail: NonScannableAuthToken: token 3", Fail(NonScannableAuthToken, "token 3").String())
	assert.False(t, Pass(nil).Failed())
	assert.True(t, Fail(InvalidOpenAPISpec, "").Failed())
}

func TestOutputTypesDeclares(t *testing.T) {
	o := OutputTypes{Success: []string{"string"}, Failures: []FailureKind{MissingAuthHeader, NonBearerAuthHeader}}
	assert.True(t, o.Declares(NonBearerAuthHeader))
	assert.False(t, o.Declares(MissingCookieFlag))
}

func TestBaseFinishAndReset(t *testing.T) {
	a := &stubAnalyzer{Base: NewBase("stub", "Stub analyzer", httpmsg.KindRequest, OutputTypes{})}
	assert.Equal(t, "stub", a.Name())
	assert.Equal(t, "Stub analyzer", a.String())
	assert.Equal(t, httpmsg.KindRequest, a.InputType())
	assert.False(t, a.Finished())

	_, err := a.Analyze(&httpmsg.Request{})
	require.NoError(t, err)
	assert.True(t, a.Finished())

	var r Resetter = a
	r.Reset()
	assert.False(t, a.Finished())
}

func TestRunCompleteAndFailuresByKind(t *testing.T) {
	a := &stubAnalyzer{Base: NewBase("stub", "Stub analyzer", httpmsg.KindRequest, OutputTypes{})}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	run := NewRun(a, start)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, "stub", run.Analyzer)

	run.Append(Result{Outcome: Fail(MissingCookieFlag, "")})
	run.Append(Result{Outcome: Fail(MissingCookiePrefix, "")})
	run.Append(Result{Outcome: Fail(MissingCookieFlag, "")})
	run.Append(Result{Outcome: Pass(nil)})
	run.Complete(start.Add(time.Second), true)

	assert.True(t, run.Finished)
	assert.Equal(t, Summary{Passed: 1, Failed: 3, Matched: 4}, run.Summary)
	assert.Equal(t, []FailureCount{
		{Kind: MissingCookieFlag, Count: 2},
		{Kind: MissingCookiePrefix, Count: 1},
	}, run.FailuresByKind())
}

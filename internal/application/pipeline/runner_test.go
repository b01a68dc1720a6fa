package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// statusAnalyzer fails responses with a status >= 400 and can stop after a
// fixed number of evaluations.
type statusAnalyzer struct {
	analysis.Base
	stopAfter int
	seen      int
	errorOn   int
}

func newStatusAnalyzer(name string) *statusAnalyzer {
	return &statusAnalyzer{Base: analysis.NewBase(name, name+" description", httpmsg.KindResponse, analysis.OutputTypes{
		Success:  []string{"int"},
		Failures: []analysis.FailureKind{analysis.OpenAPISpecErrored},
	})}
}

func (a *statusAnalyzer) CanAnalyze(p httpmsg.Payload) bool {
	res, ok := p.(*httpmsg.Response)
	return ok && res.Status != 204
}

func (a *statusAnalyzer) Analyze(p httpmsg.Payload) (analysis.Outcome, error) {
	res := p.(*httpmsg.Response)
	a.seen++
	if a.errorOn != 0 && res.Status == a.errorOn {
		return analysis.Outcome{}, sharedErrors.ErrDuplicateHeader
	}
	if a.stopAfter > 0 && a.seen >= a.stopAfter {
		a.Finish()
	}
	if res.Status >= 400 {
		return analysis.Fail(analysis.OpenAPISpecErrored, fmt.Sprint(res.Status)), nil
	}
	return analysis.Pass(res.Status), nil
}

func (a *statusAnalyzer) Reset() {
	a.Base.Reset()
	a.seen = 0
}

func sampleTimeline(t *testing.T) *timeline.Timeline {
	tl := timeline.New(nil, zaptest.NewLogger(t).Sugar())
	statuses := []int{200, 404, 204, 500, 201}
	for i, status := range statuses {
		tl.Add(timeline.Event{
			Timestamp:     t0.Add(time.Duration(i) * time.Second),
			Reader:        "test",
			SourceFile:    "a.har",
			SequenceIndex: i * 2,
			Payload:       &httpmsg.Response{Version: "HTTP/1.1", Status: status},
		})
		tl.Add(timeline.Event{
			Timestamp:     t0.Add(time.Duration(i) * time.Second),
			Reader:        "test",
			SourceFile:    "a.har",
			SequenceIndex: i*2 + 1,
			Payload:       &httpmsg.Request{Method: "GET", URI: "/"},
		})
	}
	return tl
}

func fixedClock() func() time.Time {
	var mu sync.Mutex
	now := t0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Millisecond)
		return now
	}
}

func TestScanSkipsAndSummarizes(t *testing.T) {
	r := &Runner{Logger: zaptest.NewLogger(t).Sugar(), Now: fixedClock()}
	a := newStatusAnalyzer("status")

	run, err := r.Scan(context.Background(), sampleTimeline(t), a)
	require.NoError(t, err)

	assert.Equal(t, "status", run.Analyzer)
	assert.Equal(t, "status description", run.Description)
	assert.Equal(t, analysis.Summary{Passed: 2, Failed: 2, Matched: 4}, run.Summary)
	assert.False(t, run.Finished)
	require.Len(t, run.Results, 4)
	assert.Equal(t, httpmsg.Ref{File: "a.har", Index: 0}, run.Results[0].Ref)
	assert.Equal(t, httpmsg.Ref{File: "a.har", Index: 8}, run.Results[3].Ref)
	assert.True(t, run.CompletedAt.After(run.StartedAt))
}

func TestScanStopsWhenFinished(t *testing.T) {
	r := &Runner{Now: fixedClock()}
	a := newStatusAnalyzer("early")
	a.stopAfter = 2

	run, err := r.Scan(context.Background(), sampleTimeline(t), a)
	require.NoError(t, err)
	assert.True(t, run.Finished)
	assert.Equal(t, 2, run.Summary.Matched)

	// a second scan resets the finished state
	again, err := r.Scan(context.Background(), sampleTimeline(t), a)
	require.NoError(t, err)
	assert.Equal(t, run.Summary, again.Summary)
}

func TestScanIsRepeatable(t *testing.T) {
	r := &Runner{Now: fixedClock()}
	tl := sampleTimeline(t)
	a := newStatusAnalyzer("status")

	first, err := r.Scan(context.Background(), tl, a)
	require.NoError(t, err)
	second, err := r.Scan(context.Background(), tl, a)
	require.NoError(t, err)

	require.Len(t, second.Results, len(first.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Ref, second.Results[i].Ref)
		assert.Equal(t, first.Results[i].Outcome, second.Results[i].Outcome)
	}
}

func TestScanAnalyzerError(t *testing.T) {
	r := &Runner{}
	a := newStatusAnalyzer("broken")
	a.errorOn = 500

	_, err := r.Scan(context.Background(), sampleTimeline(t), a)
	require.ErrorIs(t, err, sharedErrors.ErrDuplicateHeader)
	assert.Contains(t, err.Error(), "a.har#6")
}

func TestRunKeepsAnalyzerOrder(t *testing.T) {
	var mu sync.Mutex
	completed := 0
	r := &Runner{
		Parallelism: 3,
		Logger:      zaptest.NewLogger(t).Sugar(),
		OnComplete: func(*analysis.Run, time.Duration) {
			mu.Lock()
			completed++
			mu.Unlock()
		},
	}
	var analyzers []analysis.Analyzer
	for i := range 6 {
		analyzers = append(analyzers, newStatusAnalyzer(fmt.Sprintf("a%d", i)))
	}

	runs, err := r.Run(context.Background(), sampleTimeline(t), analyzers)
	require.NoError(t, err)
	require.Len(t, runs, 6)
	for i, run := range runs {
		assert.Equal(t, fmt.Sprintf("a%d", i), run.Analyzer)
		assert.Equal(t, 4, run.Summary.Matched)
	}
	assert.Equal(t, 6, completed)
}

func TestRunReturnsFirstError(t *testing.T) {
	broken := newStatusAnalyzer("broken")
	broken.errorOn = 404

	r := &Runner{Parallelism: 2}
	runs, err := r.Run(context.Background(), sampleTimeline(t), []analysis.Analyzer{newStatusAnalyzer("ok"), broken})
	require.ErrorIs(t, err, sharedErrors.ErrDuplicateHeader)
	assert.Nil(t, runs)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Parallelism: 1}
	_, err := r.Run(ctx, sampleTimeline(t), []analysis.Analyzer{newStatusAnalyzer("a")})
	require.True(t, errors.Is(err, context.Canceled))
}

func TestSelect(t *testing.T) {
	a, b, c := newStatusAnalyzer("a"), newStatusAnalyzer("b"), newStatusAnalyzer("c")
	all := []analysis.Analyzer{a, b, c}
	logger := zaptest.NewLogger(t).Sugar()

	assert.Equal(t, all, Select(all, nil, logger))

	picked := Select(all, []string{"c", "missing", "a"}, logger)
	require.Len(t, picked, 2)
	assert.Equal(t, "a", picked[0].Name())
	assert.Equal(t, "c", picked[1].Name())

	assert.Empty(t, Select(all, []string{"missing"}, nil))
}

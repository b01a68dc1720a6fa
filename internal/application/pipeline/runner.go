// Package pipeline runs analyzers over a timeline.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
)

// CompleteFunc is called once per finished run. It may be called from
// several goroutines.
type CompleteFunc func(run *analysis.Run, duration time.Duration)

// Runner scans a timeline once per analyzer, up to Parallelism scans at a
// time.
type Runner struct {
	Parallelism int
	Logger      *zap.SugaredLogger
	// Now defaults to time.Now.
	Now        func() time.Time
	OnComplete CompleteFunc
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run scans tl with every analyzer and returns one run per analyzer, in
// analyzer order. The first analyzer error cancels the remaining scans and is
// returned.
func (r *Runner) Run(ctx context.Context, tl *timeline.Timeline, analyzers []analysis.Analyzer) ([]*analysis.Run, error) {
	parallelism := r.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error
	runs := make([]*analysis.Run, len(analyzers))

	for i, a := range analyzers {
		wg.Add(1)
		go func(i int, a analysis.Analyzer) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			start := time.Now()
			run, err := r.Scan(ctx, tl, a)
			if err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			runs[i] = run
			if r.OnComplete != nil {
				r.OnComplete(run, time.Since(start))
			}
		}(i, a)
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	// cancellation from the caller leaves holes in runs
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// Scan resets a, then walks the events of its input kind in timeline order.
// Events a cannot analyze are skipped. The scan ends early once a reports
// Finished.
func (r *Runner) Scan(ctx context.Context, tl *timeline.Timeline, a analysis.Analyzer) (*analysis.Run, error) {
	if resetter, ok := a.(analysis.Resetter); ok {
		resetter.Reset()
	}

	run := analysis.NewRun(a, r.now())
	skipped := 0
	for item := range tl.Iterate(a.InputType()) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a.Finished() {
			break
		}
		if !a.CanAnalyze(item.Payload) {
			skipped++
			continue
		}
		outcome, err := a.Analyze(item.Payload)
		if err != nil {
			return nil, fmt.Errorf("analyzer %s at %s: %w", a.Name(), item.Ref(), err)
		}
		run.Append(analysis.Result{
			Timestamp: item.Timestamp,
			Ref:       item.Ref(),
			Payload:   item.Payload,
			Outcome:   outcome,
		})
	}
	run.Complete(r.now(), a.Finished())

	if r.Logger != nil {
		r.Logger.Debugw("analyzer finished",
			"analyzer", a.Name(),
			"matched", run.Summary.Matched,
			"failed", run.Summary.Failed,
			"skipped", skipped,
			"finished_early", run.Finished,
		)
	}
	return run, nil
}

// Select keeps the analyzers whose names appear in names, in analyzer order.
// An empty names list keeps everything. Unknown names are logged and ignored.
func Select(analyzers []analysis.Analyzer, names []string, logger *zap.SugaredLogger) []analysis.Analyzer {
	if len(names) == 0 {
		return analyzers
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var out []analysis.Analyzer
	for _, a := range analyzers {
		if wanted[a.Name()] {
			out = append(out, a)
			delete(wanted, a.Name())
		}
	}
	if logger != nil {
		for _, n := range names {
			if wanted[n] {
				logger.Warnw("ignoring unknown analyzer", "analyzer", n)
				delete(wanted, n)
			}
		}
	}
	return out
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/seca-traffic/internal/application/pipeline"
	"github.com/khanhnv2901/seca-traffic/internal/application/traffic"
)

var (
	analyzeParallelism int
	analyzeProgress    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [analyzers...]",
	Short: "Run the configured analyzers over the timeline",
	Long: `Run every analyzer named in traffic.analyzers.names, or only the named
subset, over the saved timeline and save the results. Unknown names in the
subset are ignored.`,
	Annotations: map[string]string{annotationValidateAnalyzers: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		cfg := appCtx.Config.Traffic
		if len(appCtx.Analyzers) == 0 {
			return &AnalyzerNotConfiguredError{ConfigFile: appCtx.Config.ConfigFile}
		}

		runner := appCtx.Services.Runner
		applyIntDefault(cmd.Flags(), "parallelism", cfg.Parallelism, func(v int) { analyzeParallelism = v })
		if analyzeParallelism < 1 {
			return fmt.Errorf("--parallelism must be at least 1, got %d", analyzeParallelism)
		}
		runner.Parallelism = analyzeParallelism

		selected := pipeline.Select(appCtx.Analyzers, args, appCtx.Logger)
		out := cmd.OutOrStdout()
		stopProgress := func() {}
		if analyzeProgress {
			progress := newProgressPrinter(cmd.ErrOrStderr(), len(selected), "analyze")
			runner.OnComplete = progress.Complete
			progress.Start()
			stopProgress = progress.Stop
		}

		paths := traffic.Paths{Timeline: cfg.TimelineDataFile, Analysis: cfg.AnalysisDataFile}
		runs, err := appCtx.Services.Traffic.Analyze(cmd.Context(), paths, selected, nil)
		stopProgress()
		if err != nil {
			if traffic.IsMissingData(err) {
				return &DataFileError{Path: paths.Timeline, Hint: "seca-traffic slurp", Err: err}
			}
			return err
		}

		for _, run := range runs {
			fmt.Fprintln(out, formatRunLine(run))
		}
		fmt.Fprintf(out, "%s %d analyzers into %s\n", colorSuccess("Saved"), len(runs), colorInfo(paths.Analysis))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().IntVarP(&analyzeParallelism, "parallelism", "p", 1, "analyzers to run concurrently (default from traffic.parallelism)")
	analyzeCmd.Flags().BoolVar(&analyzeProgress, "progress", false, "show a live progress line on stderr")
}

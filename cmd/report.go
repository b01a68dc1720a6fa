package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/seca-traffic/internal/application/traffic"
	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/infrastructure/reporters"
	consts "github.com/khanhnv2901/seca-traffic/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

const defaultReportFormat = "text"

// binaryFormats are never written to a terminal.
var binaryFormats = map[string]bool{"pdf": true}

var (
	reportOutput  string
	reportDisplay bool
)

var reportCmd = &cobra.Command{
	Use:   "report [format]",
	Short: "Render the saved analysis (text, json, markdown, csv, mermaid or pdf)",
	Long: `Render the saved analysis results. The mermaid format draws the timeline
as a sequence diagram and --display opens it in the mermaid live editor.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		format := defaultReportFormat
		if len(args) == 1 {
			format = strings.ToLower(args[0])
		}

		rep, err := appCtx.Services.Reporters.Get(format)
		if err != nil {
			return err
		}
		if binaryFormats[format] && reportOutput == "" {
			return fmt.Errorf("%s reports need --output", format)
		}
		displayer, canDisplay := rep.(reporters.Displayer)
		if reportDisplay && !canDisplay {
			return fmt.Errorf("%w: %s", sharedErrors.ErrDisplayUnsupported, format)
		}

		paths := traffic.Paths{
			Timeline: appCtx.Config.Traffic.TimelineDataFile,
			Analysis: appCtx.Config.Traffic.AnalysisDataFile,
		}
		body, err := appCtx.Services.Traffic.RenderReport(cmd.Context(), rep, paths)
		if err != nil {
			return reportDataError(err, paths)
		}

		if reportOutput != "" {
			if err := writeReportFile(reportOutput, body); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s report to %s\n", colorSuccess("Wrote"), format, colorInfo(reportOutput))
		} else if _, err := cmd.OutOrStdout().Write(body); err != nil {
			return err
		}

		if reportDisplay {
			return displayer.DisplayReport(body)
		}
		return nil
	},
}

// reportDataError points the user at the command that produces the missing
// file.
func reportDataError(err error, paths traffic.Paths) error {
	if !traffic.IsMissingData(err) {
		return err
	}
	if _, statErr := os.Stat(paths.Analysis); statErr != nil {
		return &DataFileError{Path: paths.Analysis, Hint: "seca-traffic analyze", Err: err}
	}
	return &DataFileError{Path: paths.Timeline, Hint: "seca-traffic slurp", Err: err}
}

func writeReportFile(path string, body []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, consts.DefaultDirPerm); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, body, consts.DefaultFilePerm); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

var reportStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show failure counts per analyzer as a table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		path := appCtx.Config.Traffic.AnalysisDataFile
		runs, err := appCtx.Services.Traffic.LoadRuns(cmd.Context(), path)
		if err != nil {
			if errors.Is(err, sharedErrors.ErrDataFileNotFound) {
				return &DataFileError{Path: path, Hint: "seca-traffic analyze", Err: err}
			}
			return err
		}
		return printStatsTable(cmd.OutOrStdout(), runs)
	},
}

func printStatsTable(out io.Writer, runs []*analysis.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(out, colorWarn("No analysis results found."))
		return nil
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ANALYZER\tSTATUS\tPASSED\tFAILED\tMATCHED\tFAILURES")
	for _, run := range runs {
		failures := make([]string, 0)
		for _, fc := range run.FailuresByKind() {
			failures = append(failures, fmt.Sprintf("%s=%d", fc.Kind, fc.Count))
		}
		notes := strings.Join(failures, " ")
		if notes == "" {
			notes = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", run.Analyzer, runStatus(run),
			run.Summary.Passed, run.Summary.Failed, run.Summary.Matched, notes)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush stats table: %w", err)
	}
	_, err := out.Write(buf.Bytes())
	return err
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write the report to a file instead of stdout")
	reportCmd.Flags().BoolVarP(&reportDisplay, "display", "d", false, "open the report in an interactive viewer (mermaid only)")
	reportCmd.AddCommand(reportStatsCmd)
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

func formatStatusWithColor(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success", "pass", "passed":
		return colorSuccess(status)
	case "error", "fail", "failed":
		return colorError(status)
	case "skipped", "empty":
		return colorWarn(status)
	default:
		return status
	}
}

func runStatus(run *analysis.Run) string {
	switch {
	case run.Summary.Matched == 0:
		return "empty"
	case run.Summary.Failed > 0:
		return "failed"
	}
	return "passed"
}

// formatRunLine renders one analyze summary line for the terminal.
func formatRunLine(run *analysis.Run) string {
	return fmt.Sprintf("%-8s %s: %d passed, %d failed; %d matched",
		formatStatusWithColor(runStatus(run)), colorInfo(run.Analyzer),
		run.Summary.Passed, run.Summary.Failed, run.Summary.Matched)
}

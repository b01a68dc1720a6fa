package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/seca-traffic/internal/infrastructure/persistence"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show configuration and data file locations",
	Long: `Display seca-traffic configuration information including:
  - Configuration file in use
  - Timeline and analysis data files and their backends
  - Configured analyzers and input files
  - Platform information`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		cfg := appCtx.Config

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "seca-traffic System Information")
		fmt.Fprintln(out, "===============================")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Version:           %s\n", Version)
		fmt.Fprintf(out, "Platform:          %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintln(out)

		configFile := cfg.ConfigFile
		if configFile == "" {
			configFile = cfgFile + " ✗ (using defaults)"
		} else {
			configFile += " ✓ (loaded)"
		}
		fmt.Fprintf(out, "Configuration File:   %s\n", configFile)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Data Files:")
		printDataFile(out, "Timeline", cfg.Traffic.TimelineDataFile)
		printDataFile(out, "Analysis", cfg.Traffic.AnalysisDataFile)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Input Files:          %d configured\n", len(cfg.Traffic.InputFiles))
		fmt.Fprintf(out, "Analyzers:            %d configured\n", len(cfg.Traffic.AnalyzerNames))
		fmt.Fprintf(out, "Parallelism:          %d\n", cfg.Traffic.Parallelism)
		return nil
	},
}

func printDataFile(out io.Writer, label, path string) {
	backend := "json"
	if persistence.IsSQLite(path) {
		backend = "sqlite"
	}
	state := "✗ (not created yet)"
	if _, err := os.Stat(path); err == nil {
		state = "✓ (exists)"
	}
	fmt.Fprintf(out, "  %-9s %s [%s] %s\n", label+":", path, backend, state)
}

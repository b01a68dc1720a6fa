package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khanhnv2901/seca-traffic/internal/application"
	consts "github.com/khanhnv2901/seca-traffic/internal/shared/constants"
)

// annotationValidateAnalyzers marks commands that build every configured
// analyzer before doing any work, so configuration mistakes fail fast.
const annotationValidateAnalyzers = "seca-traffic/validate-analyzers"

var (
	cfgFile      string
	verbose      bool
	timelineFile string
	analysisFile string
)

var rootCmd = &cobra.Command{
	Use:   "seca-traffic",
	Short: "Analyze recorded HTTP traffic against a web security checklist",
	Long: `seca-traffic merges packet captures and HTTP archives into one timeline,
runs security checklist analyzers over it and renders reports.

Typical flow:
  seca-traffic slurp capture.pcap session.har
  seca-traffic analyze
  seca-traffic report text`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		explicit := cmd.Flags().Changed("config")
		cfg, err := loadCLIConfig(cfgFile, explicit)
		if err != nil {
			return err
		}
		applyStringDefault(cmd.Flags(), "timeline", cfg.Traffic.TimelineDataFile, func(v string) { timelineFile = v })
		applyStringDefault(cmd.Flags(), "analysis", cfg.Traffic.AnalysisDataFile, func(v string) { analysisFile = v })
		cfg.Traffic.TimelineDataFile = timelineFile
		cfg.Traffic.AnalysisDataFile = analysisFile

		logger, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		appCtx := &AppContext{
			Logger: logger,
			Config: cfg,
			Services: application.NewContainer(application.Options{
				Logger:      logger,
				Parallelism: cfg.Traffic.Parallelism,
			}),
		}

		if cmd.Annotations[annotationValidateAnalyzers] == "true" {
			built, err := appCtx.Services.BuildAnalyzers(cfg.Traffic.AnalyzerNames, cfg.Traffic.Sections)
			if err != nil {
				return err
			}
			appCtx.Analyzers = built
		}

		if cfg.ConfigFile != "" {
			logger.Debugw("loaded config", "file", cfg.ConfigFile)
		}
		storeAppContext(cmd, appCtx)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appCtx := getAppContext(cmd); appCtx != nil && appCtx.Logger != nil {
			_ = appCtx.Logger.Sync()
		}
	},
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError("Error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", consts.DefaultConfigFile, "config file (TOML, YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&timelineFile, "timeline", consts.DefaultTimelineDataFile, "timeline data file (.json, or .db/.sqlite for SQLite)")
	rootCmd.PersistentFlags().StringVar(&analysisFile, "analysis", consts.DefaultAnalysisDataFile, "analysis data file (.json, or .db/.sqlite for SQLite)")

	rootCmd.SilenceErrors = true

	// add subcommands
	rootCmd.AddCommand(slurpCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(analyzersCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionCmd)
}

package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/seca-traffic/internal/application/traffic"
)

var cleanForce bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete the timeline and analysis data files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		paths := traffic.Paths{
			Timeline: appCtx.Config.Traffic.TimelineDataFile,
			Analysis: appCtx.Config.Traffic.AnalysisDataFile,
		}
		for _, path := range []string{paths.Timeline, paths.Analysis} {
			if err := validateDataFilePath(path); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if !cleanForce {
			ok, err := confirm(cmd, fmt.Sprintf("Delete %s and %s? [y/N] ", paths.Timeline, paths.Analysis))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, colorWarn("Aborted."))
				return nil
			}
		}

		removed, err := appCtx.Services.Traffic.Clean(paths)
		for _, path := range removed {
			fmt.Fprintf(out, "%s %s\n", colorSuccess("Removed"), path)
		}
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			fmt.Fprintln(out, colorInfo("Nothing to clean."))
		}
		return nil
	},
}

func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		// EOF without an answer declines
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func init() {
	cleanCmd.Flags().BoolVarP(&cleanForce, "force", "f", false, "delete without asking")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var slurpCmd = &cobra.Command{
	Use:   "slurp [files...]",
	Short: "Merge capture and archive files into the timeline",
	Long: `Read every input file with the reader registered for its suffix
(.pcap, .pcapng, .har) and save the merged, time-ordered timeline.

Files default to traffic.input_files from the config. Unsupported files and
unreadable records are logged and skipped.`,
	Annotations: map[string]string{annotationValidateAnalyzers: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		inputs := args
		if len(inputs) == 0 {
			inputs = appCtx.Config.Traffic.InputFiles
		}
		if len(inputs) == 0 {
			return fmt.Errorf("no input files: pass them as arguments or set traffic.input_files")
		}

		path := appCtx.Config.Traffic.TimelineDataFile
		tl, err := appCtx.Services.Traffic.Slurp(cmd.Context(), inputs, path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %d events from %d files into %s\n",
			colorSuccess("Slurped"), tl.Len(), len(inputs), colorInfo(path))
		return nil
	},
}

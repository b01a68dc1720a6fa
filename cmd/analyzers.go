package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/seca-traffic/internal/infrastructure/analyzers"
)

var analyzersFormat string

// analyzerListing is one row of the analyzers command.
type analyzerListing struct {
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	Required    []string `json:"required,omitempty"`
	Failures    []string `json:"failures"`
	// ConfiguredAs lists the configured analyzer names built from this kind.
	ConfiguredAs []string `json:"configured_as,omitempty"`
}

var analyzersCmd = &cobra.Command{
	Use:   "analyzers",
	Short: "List the available analyzer kinds and their failure kinds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		listing := buildAnalyzerListing(appCtx.Services.Analyzers.Entries(), appCtx.Config.Traffic)

		out := cmd.OutOrStdout()
		switch strings.ToLower(analyzersFormat) {
		case "text":
			return printAnalyzerTable(out, listing)
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(listing)
		default:
			return fmt.Errorf("unsupported format %s (use text or json)", analyzersFormat)
		}
	},
}

func buildAnalyzerListing(entries []analyzers.Entry, cfg TrafficConfig) []analyzerListing {
	configured := make(map[string][]string)
	for _, name := range cfg.AnalyzerNames {
		kind := name
		if k, ok := cfg.Sections[name]["kind"].(string); ok && k != "" {
			kind = k
		}
		configured[kind] = append(configured[kind], name)
	}

	out := make([]analyzerListing, 0, len(entries))
	for _, e := range entries {
		failures := make([]string, len(e.Failures))
		for i, f := range e.Failures {
			failures[i] = string(f)
		}
		out = append(out, analyzerListing{
			Kind:         e.Kind,
			Description:  e.Description,
			Required:     e.Required,
			Failures:     failures,
			ConfiguredAs: configured[e.Kind],
		})
	}
	return out
}

func printAnalyzerTable(out io.Writer, listing []analyzerListing) error {
	tw := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tCONFIGURED\tREQUIRES\tFAILURES\tDESCRIPTION")
	for _, l := range listing {
		configured := "-"
		if len(l.ConfiguredAs) > 0 {
			configured = colorSuccess(strings.Join(l.ConfiguredAs, ","))
		}
		required := "-"
		if len(l.Required) > 0 {
			required = strings.Join(l.Required, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.Kind, configured, required, strings.Join(l.Failures, ","), l.Description)
	}
	return tw.Flush()
}

func init() {
	analyzersCmd.Flags().StringVar(&analyzersFormat, "format", "text", "Output format: text|json")
}

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	consts "github.com/khanhnv2901/seca-traffic/internal/shared/constants"
)

// Version information (injected at build time via -ldflags)
// These default values indicate a development build
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Display detailed version information for seca-traffic",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if verbose {
			fmt.Fprintf(out, `seca-traffic Version Information:
  Version:     %s
  Git Commit:  %s
  Build Date:  %s
  Data Format: %s
  Go Version:  %s
  OS/Arch:     %s/%s
  Compiler:    %s
`, Version, GitCommit, BuildDate, consts.DataFormatVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.Compiler)
		} else {
			fmt.Fprintf(out, "seca-traffic version %s\n", Version)
		}
	},
}

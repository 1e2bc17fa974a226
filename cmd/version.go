package cmd

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "dev"
	date    = "unknown"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the build version, module version, commit and build date of dbglue`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		printVersion(cmd.OutOrStdout())
	},
}

func printVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "dbglue version %s\n", version)
	_, _ = fmt.Fprintf(w, "Module version: %s\n", moduleVersion())
	_, _ = fmt.Fprintf(w, "Git commit: %s\n", commit)
	_, _ = fmt.Fprintf(w, "Built on: %s\n", date)
}

// moduleVersion reports the version go install recorded, "(devel)" for local builds.
func moduleVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "unknown"
	}
	return info.Main.Version
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

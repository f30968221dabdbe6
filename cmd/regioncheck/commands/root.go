package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "regioncheck",
	Short: "regioncheck - region-based isolation checking for Go",
	Long: `regioncheck finds uses of non-sendable values after they were sent to a
concurrent task or into another isolation domain.

Commands:
  check       Analyze packages once and report diagnostics
  watch       Re-run the analysis whenever source files change

Use "regioncheck [command] --help" for more information about a command.`,
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(checkCmd)
	RootCmd.AddCommand(watchCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

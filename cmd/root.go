package cmd

import (
	"os"

	"nathanbeddoewebdev/perfsight/cmd/commands/compare"
	cfgcmd "nathanbeddoewebdev/perfsight/cmd/commands/config"
	"nathanbeddoewebdev/perfsight/cmd/commands/folder"
	"nathanbeddoewebdev/perfsight/cmd/commands/report"
	"nathanbeddoewebdev/perfsight/cmd/commands/serve"
	"nathanbeddoewebdev/perfsight/cmd/commands/tags"
	"nathanbeddoewebdev/perfsight/internal/api/client"
	"nathanbeddoewebdev/perfsight/internal/store"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "perfsight",
		Short: "Analyze and compare process performance reports",
		Long: `perfsight stores CPU and memory reports sampled from running processes
and analyzes them: per-report statistics and insights, aligned comparisons
of several runs against a baseline, the processes driving a change, and
tag-defined groups of runs.

Reports live in a local SQLite database, or on a shared "perfsight serve"
instance when the http backend is configured.

Quick start:
  perfsight report import run.json            # Store a recorded report
  perfsight report show 1                     # Statistics and insights
  perfsight compare create --reports 1,2      # Compare two runs
  perfsight compare view 1                    # Explore interactively`,
	}

	cmd.AddCommand(report.NewCommand())
	cmd.AddCommand(compare.NewCommand())
	cmd.AddCommand(folder.NewCommand())
	cmd.AddCommand(tags.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())
	cmd.AddCommand(serve.NewCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	store.Register()
	client.Register()

	var root = rootCmd()
	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}

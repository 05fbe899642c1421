package compare

import (
	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"

	"github.com/spf13/cobra"
)

// NewCommand returns the "compare" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "compare",
		Aliases: []string{"comparison"},
		Short:   "Compare reports against a baseline",
		Long: `Create and analyze saved comparisons of two or more reports.

A comparison aligns its reports on a shared sample axis, keeps a per-report
selection of processes for CPU and memory, and ranks the processes that
drive the difference against the baseline report.`,
	}

	cmd.AddCommand(CreateCommand())
	cmd.AddCommand(ListCommand())
	cmd.AddCommand(ShowCommand())
	cmd.AddCommand(SelectCommand())
	cmd.AddCommand(BaselineCommand())
	cmd.AddCommand(ReportsCommand())
	cmd.AddCommand(DriversCommand())
	cmd.AddCommand(GroupsCommand())
	cmd.AddCommand(ExportCommand())
	cmd.AddCommand(ImportCommand())
	cmd.AddCommand(DeleteCommand())
	cmd.AddCommand(ViewCommand())

	cmdutil.AddBackendFlags(cmd)

	return cmd
}

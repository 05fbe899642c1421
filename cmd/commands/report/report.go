package report

import (
	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"

	"github.com/spf13/cobra"
)

// NewCommand returns the "report" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect and manage monitoring reports",
		Long: `List, inspect, import and export performance monitoring reports.

Reports are read from the configured backend: the local SQLite database
(default) or a perfsight server.`,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(ShowCommand())
	cmd.AddCommand(ProcsCommand())
	cmd.AddCommand(CustomCommand())
	cmd.AddCommand(ImportCommand())
	cmd.AddCommand(ExportCommand())
	cmd.AddCommand(DeleteCommand())
	cmd.AddCommand(TagCommand())
	cmd.AddCommand(RenameCommand())
	cmd.AddCommand(MoveCommand())

	cmdutil.AddBackendFlags(cmd)

	return cmd
}

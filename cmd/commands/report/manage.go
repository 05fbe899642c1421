package report

import (
	"context"
	"fmt"
	"strings"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"

	"github.com/spf13/cobra"
)

func DeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id> [id...]",
		Short: "Delete one or more reports",
		Long: `Delete reports. Comparisons that reference them are kept and fail to
load until the reports are removed from them.

With several ids, ids that do not exist are skipped.

Examples:
  perfsight report delete 12
  perfsight report delete 12 13 14`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				runUpdate(cmd, args[0], "Deleted report %d\n", func(env *cmdutil.Env, id int64) error {
					return env.Backend.DeleteReport(context.Background(), id)
				})
				return
			}
			runDeleteMany(cmd, args)
		},
	}

	return cmd
}

func TagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag <id> [tags...]",
		Short: "Replace the tags of a report",
		Long: `Replace the tags of a report. Tags are trimmed and deduplicated without
regard to case. Pass no tags to clear them.

Examples:
  perfsight report tag 12 main linux nightly
  perfsight report tag 12`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			tags := args[1:]
			runUpdate(cmd, args[0], "Tagged report %d\n", func(env *cmdutil.Env, id int64) error {
				return env.Backend.UpdateReportTags(context.Background(), id, tags)
			})
		},
	}

	return cmd
}

func RenameCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a report",
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			title := strings.Join(args[1:], " ")
			runUpdate(cmd, args[0], "Renamed report %d\n", func(env *cmdutil.Env, id int64) error {
				return env.Backend.UpdateReportTitle(context.Background(), id, title)
			})
		},
	}

	return cmd
}

func MoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <id> [folder]",
		Short: "Move a report to a folder",
		Long: `Move a report to a slash-separated folder. Omit the folder to move the
report back to the root.`,
		Args: cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			folder := ""
			if len(args) == 2 {
				folder = args[1]
			}
			runUpdate(cmd, args[0], "Moved report %d\n", func(env *cmdutil.Env, id int64) error {
				return env.Backend.UpdateReportFolder(context.Background(), id, folder)
			})
		},
	}

	return cmd
}

// runUpdate parses the id, opens the backend and applies update.
func runUpdate(cmd *cobra.Command, rawID, done string, update func(env *cmdutil.Env, id int64) error) {
	id, err := cmdutil.ParseID(rawID)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	env, err := cmdutil.Open(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	defer env.Close()

	if err := update(env, id); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), done, id)
}

func runDeleteMany(cmd *cobra.Command, args []string) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := cmdutil.ParseID(arg)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return
		}
		ids = append(ids, id)
	}

	env, err := cmdutil.Open(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	defer env.Close()

	n, err := env.Backend.DeleteReports(context.Background(), ids)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d of %d report(s)\n", n, len(ids))
}

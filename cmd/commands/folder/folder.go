// Package folder implements "perfsight folder".
package folder

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/report/domain"

	"github.com/spf13/cobra"
)

// NewCommand returns the "folder" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Organize reports into folders",
		Long: `Create, rename and delete the slash-separated folders reports are filed
in, and move reports between them in bulk.

A folder exists while it holds reports, has a subfolder that does, or was
created with "folder create".`,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(CreateCommand())
	cmd.AddCommand(StatsCommand())
	cmd.AddCommand(RenameCommand())
	cmd.AddCommand(DeleteCommand())
	cmd.AddCommand(MoveCommand())

	cmdutil.AddBackendFlags(cmd)

	return cmd
}

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List folders with their report counts",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			withEnv(cmd, func(env *cmdutil.Env) error {
				folders, err := env.Backend.ListFolders(context.Background())
				if err != nil {
					return err
				}
				if cmdutil.Output(cmd) == "json" {
					if folders == nil {
						folders = []domain.FolderInfo{}
					}
					cmdutil.PrintJSON(cmd, folders)
					return nil
				}
				if len(folders) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No folders found.")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "FOLDER\tREPORTS")
				fmt.Fprintln(w, "------\t-------")
				for _, f := range folders {
					fmt.Fprintf(w, "%s\t%d\n", f.Path, f.ReportCount)
				}
				return w.Flush()
			})
		},
	}

	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func CreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <path>",
		Short: "Create an empty folder",
		Long: `Create an empty folder. The last segment of the path is the new folder's
name; the rest is its parent.

Examples:
  perfsight folder create nightly
  perfsight folder create perf/web/checkout`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withEnv(cmd, func(env *cmdutil.Env) error {
				parent, name := splitPath(args[0])
				path, err := env.Backend.CreateFolder(context.Background(), parent, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created folder %s\n", path)
				return nil
			})
		},
	}

	return cmd
}

func StatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [path]",
		Short: "Show report counts for a folder and its subfolders",
		Long:  `Show report counts for a folder and its subfolders. Omit the path for the whole store.`,
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			withEnv(cmd, func(env *cmdutil.Env) error {
				stats, err := env.Backend.GetFolderStats(context.Background(), path)
				if err != nil {
					return err
				}
				if cmdutil.Output(cmd) == "json" {
					cmdutil.PrintJSON(cmd, stats)
					return nil
				}
				name := stats.Path
				if name == "" {
					name = "(root)"
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "  Folder:\t%s\n", name)
				fmt.Fprintf(w, "  Reports:\t%d\n", stats.DirectReports)
				fmt.Fprintf(w, "  Including subfolders:\t%d\n", stats.TotalReports)
				fmt.Fprintf(w, "  Subfolders:\t%d\n", stats.Subfolders)
				fmt.Fprintf(w, "  Recorded time:\t%s\n", time.Duration(stats.TotalDurationSeconds)*time.Second)
				return w.Flush()
			})
		},
	}

	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func RenameCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename a folder",
		Long: `Rename the last segment of a folder. Reports and subfolders below it
move with it.

Examples:
  perfsight folder rename perf/web frontend   # perf/web -> perf/frontend`,
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			withEnv(cmd, func(env *cmdutil.Env) error {
				path, err := env.Backend.RenameFolder(context.Background(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed folder to %s\n", path)
				return nil
			})
		},
	}

	return cmd
}

func DeleteCommand() *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "delete <path>",
		Short: "Delete a folder",
		Long: `Delete a folder.

Strategies:
  move-to-parent   Reports and subfolders move one level up (default)
  delete-reports   Every report in the folder and its subfolders is deleted`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withEnv(cmd, func(env *cmdutil.Env) error {
				res, err := env.Backend.DeleteFolder(context.Background(), args[0], domain.FolderDeleteStrategy(strategy))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted folder %s (%d moved, %d deleted)\n",
					strings.Trim(args[0], "/"), res.Moved, res.Deleted)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", string(domain.FolderMoveToParent),
		"What happens to the folder's reports: move-to-parent or delete-reports")

	return cmd
}

func MoveCommand() *cobra.Command {
	var reports string

	cmd := &cobra.Command{
		Use:   "move [folder] --reports <ids>",
		Short: "Move several reports into a folder",
		Long: `Move several reports into a folder. Omit the folder to move them back
to the root. Ids that do not exist are skipped.

Examples:
  perfsight folder move perf/web --reports 3,4,7
  perfsight folder move --reports 3`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ids, err := cmdutil.ParseIDList(reports)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error: --reports is required")
				return
			}
			folder := ""
			if len(args) == 1 {
				folder = args[0]
			}
			withEnv(cmd, func(env *cmdutil.Env) error {
				n, err := env.Backend.UpdateReportsFolder(context.Background(), ids, folder)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %d of %d report(s)\n", n, len(ids))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reports, "reports", "", "Comma-separated report ids")

	return cmd
}

// withEnv opens the backend, runs fn and prints any error.
func withEnv(cmd *cobra.Command, fn func(env *cmdutil.Env) error) {
	env, err := cmdutil.Open(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	defer env.Close()

	if err := fn(env); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
}

// splitPath splits "a/b/c" into the parent "a/b" and the name "c".
func splitPath(path string) (parent, name string) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

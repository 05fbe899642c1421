package report

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all reports",
		Long: `List every stored report, newest first.

Examples:
  perfsight report list
  perfsight report list --folder perf/web
  perfsight report list -o json`,
		Run: runList,
	}

	cmd.Flags().String("folder", "", "Only list reports in this folder")
	cmd.Flags().String("tag", "", "Only list reports carrying this tag")
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runList(cmd *cobra.Command, args []string) {
	env, err := cmdutil.Open(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	defer env.Close()

	reports, err := env.Backend.GetReports(context.Background())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error listing reports: %v\n", err)
		return
	}

	folder, _ := cmd.Flags().GetString("folder")
	tag, _ := cmd.Flags().GetString("tag")
	reports = filterSummaries(reports, strings.Trim(folder, "/"), tag)

	if cmdutil.Output(cmd) == "json" {
		cmdutil.PrintJSON(cmd, reports)
		return
	}

	if len(reports) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No reports found.")
		return
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tTITLE\tDURATION\tFOLDER\tTAGS")
	fmt.Fprintln(w, "--\t-------\t-----\t--------\t------\t----")

	for _, r := range reports {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.CreatedAt,
			r.Title,
			formatDuration(r.DurationSeconds),
			r.FolderPath,
			strings.Join(r.Tags, ", "),
		)
	}

	w.Flush()
}

package report

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/analytics"

	"github.com/spf13/cobra"
)

func CustomCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "custom <id>",
		Short: "Show custom metrics of a report",
		Long: `Summarize the log-derived custom metrics of a report per metric name
and process. Values not tied to a process are listed as "Ungrouped".`,
		Args: cobra.ExactArgs(1),
		Run:  runCustom,
	}

	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runCustom(cmd *cobra.Command, args []string) {
	id, err := cmdutil.ParseID(args[0])
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

	r, err := env.Backend.GetReportDetail(context.Background(), id)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	groups := analytics.SummarizeCustomMetrics(r)
	if cmdutil.Output(cmd) == "json" {
		cmdutil.PrintJSON(cmd, groups)
		return
	}
	if len(groups) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No custom metrics recorded.")
		return
	}
	printCustomMetrics(cmd, groups)
}

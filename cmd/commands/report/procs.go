package report

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/analytics"

	"github.com/spf13/cobra"
)

func ProcsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "procs <id>",
		Short: "Show per-process statistics of a report",
		Long: `Show CPU and memory statistics for every process of a report.

Processes are labelled by alias, window title or process name. Rows are
sorted by mean CPU unless --metric memory is given.

Examples:
  perfsight report procs 12
  perfsight report procs 12 --metric memory
  perfsight report procs 12 -o json`,
		Args: cobra.ExactArgs(1),
		Run:  runProcs,
	}

	cmd.Flags().String("metric", "cpu", "Sort by metric: cpu or memory")
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runProcs(cmd *cobra.Command, args []string) {
	id, err := cmdutil.ParseID(args[0])
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	metric, _ := cmd.Flags().GetString("metric")
	kind, err := analytics.ParseKind(metric)
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

	rows := analytics.SummarizeProcesses(r)
	if kind == analytics.KindMemory {
		sortProcessesByMemory(rows)
	}

	if cmdutil.Output(cmd) == "json" {
		if rows == nil {
			rows = []analytics.ProcessRow{}
		}
		cmdutil.PrintJSON(cmd, rows)
		return
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No process data found.")
		return
	}
	printProcesses(cmd, rows)
}

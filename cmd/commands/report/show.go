package report

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"

	"github.com/spf13/cobra"
)

func ShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a report and its analysis",
		Long: `Show a report's metadata, summary statistics, score and insights.

The analysis is recomputed from the stored batches every time.

Examples:
  perfsight report show 12
  perfsight report show 12 -o json`,
		Args: cobra.ExactArgs(1),
		Run:  runShow,
	}

	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runShow(cmd *cobra.Command, args []string) {
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

	detail := newReportDetail(r)
	if cmdutil.Output(cmd) == "json" {
		cmdutil.PrintJSON(cmd, detail)
		return
	}
	printReportDetail(cmd, detail)
}

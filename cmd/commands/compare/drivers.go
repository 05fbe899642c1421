package compare

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/analytics"

	"github.com/spf13/cobra"
)

func DriversCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drivers <id>",
		Short: "Rank the processes behind a change",
		Long: `Rank, for every report, the processes whose mean CPU and memory changed
most against the baseline report. Without a baseline the first report is
the reference.

Examples:
  perfsight compare drivers 2
  perfsight compare drivers 2 --expanded
  perfsight compare drivers 2 --top 10 -o json`,
		Args: cobra.ExactArgs(1),
		Run:  runDrivers,
	}

	cmd.Flags().Int("top", analytics.CollapsedTopK, "Drivers to show per metric")
	cmd.Flags().Bool("expanded", false, fmt.Sprintf("Show the top %d drivers", analytics.ExpandedTopK))
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runDrivers(cmd *cobra.Command, args []string) {
	id, err := cmdutil.ParseID(args[0])
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	top, _ := cmd.Flags().GetInt("top")
	if expanded, _ := cmd.Flags().GetBool("expanded"); expanded && !cmd.Flags().Changed("top") {
		top = analytics.ExpandedTopK
	}
	if top <= 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: --top must be positive\n")
		return
	}

	env, err := cmdutil.Open(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	defer env.Close()

	loaded, err := env.Service().Load(context.Background(), id)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error loading comparison: %v\n", err)
		return
	}
	reports, err := loaded.Drivers()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error ranking drivers: %v\n", err)
		return
	}
	for i := range reports {
		reports[i] = reports[i].TopK(top)
	}

	if cmdutil.Output(cmd) == "json" {
		cmdutil.PrintJSON(cmd, reports)
		return
	}
	if len(reports) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No reports to compare against the baseline.")
		return
	}
	printDrivers(cmd, reports)
}

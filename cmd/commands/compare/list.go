package compare

import (
	"context"
	"fmt"
	"text/tabwriter"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/report/domain"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved comparisons",
		Run:   runList,
	}

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

	comparisons, err := env.Backend.ListComparisons(context.Background())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error listing comparisons: %v\n", err)
		return
	}

	if cmdutil.Output(cmd) == "json" {
		if comparisons == nil {
			comparisons = []domain.ComparisonSummary{}
		}
		cmdutil.PrintJSON(cmd, comparisons)
		return
	}

	if len(comparisons) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No comparisons found.")
		return
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tTITLE\tREPORTS\tBASELINE")
	fmt.Fprintln(w, "--\t-------\t-----\t-------\t--------")

	for _, c := range comparisons {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			c.ID,
			c.CreatedAt,
			c.Title,
			joinIDs(c.ReportIDs),
			formatBaseline(c.BaselineReportID),
		)
	}

	w.Flush()
}

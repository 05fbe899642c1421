package compare

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/services/comparison"

	"github.com/spf13/cobra"
)

func ReportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports <id>",
		Short: "Replace the reports of a comparison",
		Long: `Replace the report set of a comparison.

Selections of reports that stay in the comparison are kept; added reports
start with every process selected.

Examples:
  perfsight compare reports 2 --reports 5,6,9 --baseline 5`,
		Args: cobra.ExactArgs(1),
		Run:  runReports,
	}

	cmd.Flags().String("reports", "", "Comma-separated report ids (required)")
	cmd.MarkFlagRequired("reports")
	cmd.Flags().Int64("baseline", 0, "Baseline report id")

	return cmd
}

func runReports(cmd *cobra.Command, args []string) {
	id, err := cmdutil.ParseID(args[0])
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	raw, _ := cmd.Flags().GetString("reports")
	ids, err := cmdutil.ParseIDList(raw)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	var baseline *int64
	if cmd.Flags().Changed("baseline") {
		b, _ := cmd.Flags().GetInt64("baseline")
		baseline = &b
	}

	ok := editSession(cmd, id, func(ctx context.Context, s *comparison.Session) error {
		return s.SetReports(ctx, ids, baseline)
	})
	if !ok {
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Comparison %d now covers reports %s\n", id, joinIDs(ids))
}

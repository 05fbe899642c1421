package compare

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/report/domain"

	"github.com/spf13/cobra"
)

func CreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a comparison",
		Long: `Create a comparison of at least two reports.

Every process of every report starts selected. Without --baseline the
aligned axis uses the first report's interval and drivers are measured
against the first report.

Examples:
  perfsight compare create --reports 3,4,5
  perfsight compare create --reports 3,4 --baseline 3 --title "main vs feature"`,
		Run: runCreate,
	}

	cmd.Flags().String("reports", "", "Comma-separated report ids (required)")
	cmd.MarkFlagRequired("reports")
	cmd.Flags().Int64("baseline", 0, "Baseline report id")
	cmd.Flags().String("title", "", "Comparison title")

	return cmd
}

func runCreate(cmd *cobra.Command, args []string) {
	raw, _ := cmd.Flags().GetString("reports")
	ids, err := cmdutil.ParseIDList(raw)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	cfg := &domain.ComparisonConfig{ReportIDs: ids}
	cfg.Title, _ = cmd.Flags().GetString("title")
	if cmd.Flags().Changed("baseline") {
		baseline, _ := cmd.Flags().GetInt64("baseline")
		cfg.BaselineReportID = &baseline
	}

	env, err := cmdutil.Open(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	defer env.Close()

	id, err := env.Backend.CreateComparison(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error creating comparison: %v\n", err)
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created comparison %d\n", id)
}

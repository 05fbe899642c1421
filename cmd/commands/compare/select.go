package compare

import (
	"context"
	"errors"
	"fmt"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/analytics"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
	"nathanbeddoewebdev/perfsight/internal/services/comparison"
	"nathanbeddoewebdev/perfsight/internal/tui"

	"github.com/spf13/cobra"
)

func SelectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select <id>",
		Short: "Choose the processes a report contributes",
		Long: `Replace the selected processes of one report in a comparison.

The CPU and memory selections are independent. Exactly one of --pids,
--all, --none or --interactive is required.

Examples:
  perfsight compare select 2 --report 5 --kind cpu --pids 101,102
  perfsight compare select 2 --report 5 --kind memory --all
  perfsight compare select 2 --report 5 --interactive`,
		Args: cobra.ExactArgs(1),
		Run:  runSelect,
	}

	cmd.Flags().Int64("report", 0, "Report id within the comparison (required)")
	cmd.MarkFlagRequired("report")
	cmd.Flags().String("kind", "cpu", "Selection to change: cpu or memory")
	cmd.Flags().String("pids", "", "Comma-separated PIDs to select")
	cmd.Flags().Bool("all", false, "Select every process of the report")
	cmd.Flags().Bool("none", false, "Deselect every process of the report")
	cmd.Flags().BoolP("interactive", "i", false, "Pick processes from a list")
	cmd.MarkFlagsMutuallyExclusive("pids", "all", "none", "interactive")
	cmd.MarkFlagsOneRequired("pids", "all", "none", "interactive")

	return cmd
}

func runSelect(cmd *cobra.Command, args []string) {
	id, err := cmdutil.ParseID(args[0])
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := analytics.ParseKind(kindFlag)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	reportID, _ := cmd.Flags().GetInt64("report")

	var selected []int
	ok := editSession(cmd, id, func(ctx context.Context, s *comparison.Session) error {
		r := findReport(s.Reports(), reportID)
		if r == nil {
			return fmt.Errorf("report %d is not part of comparison %d: %w", reportID, id, analytics.ErrUnknownReport)
		}

		pids, err := pidsFromFlags(cmd, r, kind, s.Selections())
		if errors.Is(err, tui.ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		selected = pids
		return s.SetSelection(reportID, kind, pids)
	})
	if !ok {
		return
	}
	if selected == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Selection unchanged.")
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Selected %d %s process(es) of report %d in comparison %d\n",
		len(selected), kind, reportID, id)
}

func pidsFromFlags(cmd *cobra.Command, r *domain.Report, kind analytics.Kind, sel analytics.Selections) ([]int, error) {
	switch {
	case cmd.Flags().Changed("all"):
		return append([]int{}, analytics.DiscoverPIDs(r.Metrics)...), nil
	case cmd.Flags().Changed("none"):
		return []int{}, nil
	case cmd.Flags().Changed("interactive"):
		current, ok := sel.Get(r.ID, kind)
		if !ok {
			current = analytics.NewPIDSet(analytics.DiscoverPIDs(r.Metrics)...)
		}
		return tui.SelectProcessesForm(r, kind, current)
	}
	raw, _ := cmd.Flags().GetString("pids")
	return cmdutil.ParseIntList(raw)
}

func findReport(reports []*domain.Report, id int64) *domain.Report {
	for _, r := range reports {
		if r.ID == id {
			return r
		}
	}
	return nil
}

package compare

import (
	"context"
	"fmt"
	"strings"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/services/comparison"

	"github.com/spf13/cobra"
)

func BaselineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline <id> <report-id|none>",
		Short: "Set or clear the baseline report",
		Long: `Set the baseline report of a comparison, or clear it with "none".

The baseline decides the aligned sampling interval and is the reference
for driver deltas.

Examples:
  perfsight compare baseline 2 5
  perfsight compare baseline 2 none`,
		Args: cobra.ExactArgs(2),
		Run:  runBaseline,
	}

	return cmd
}

func runBaseline(cmd *cobra.Command, args []string) {
	id, err := cmdutil.ParseID(args[0])
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	var baseline *int64
	if !strings.EqualFold(args[1], "none") {
		reportID, err := cmdutil.ParseID(args[1])
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return
		}
		baseline = &reportID
	}

	ok := editSession(cmd, id, func(_ context.Context, s *comparison.Session) error {
		return s.SetBaseline(baseline)
	})
	if !ok {
		return
	}

	if baseline == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared baseline of comparison %d\n", id)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Baseline of comparison %d is report %d\n", id, *baseline)
}

package compare

import (
	"context"
	"fmt"
	"os"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/analytics"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
	"nathanbeddoewebdev/perfsight/internal/tui/components"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultChartWidth = 100

func ShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the aligned series of a comparison",
		Long: `Show the CPU or memory series of every report in a comparison on the
shared sample axis. Samples a report does not reach are shown as "-".

Examples:
  perfsight compare show 2
  perfsight compare show 2 --metric memory --chart
  perfsight compare show 2 -o json`,
		Args: cobra.ExactArgs(1),
		Run:  runShow,
	}

	cmd.Flags().String("metric", "cpu", "Series to show: cpu or memory")
	cmd.Flags().Bool("chart", false, "Draw the series as a line chart")
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runShow(cmd *cobra.Command, args []string) {
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

	loaded, err := env.Service().Load(context.Background(), id)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error loading comparison: %v\n", err)
		return
	}
	alignment, err := loaded.Alignment()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error aligning reports: %v\n", err)
		return
	}

	if cmdutil.Output(cmd) == "json" {
		cmdutil.PrintJSON(cmd, alignment)
		return
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Comparison %d: %s\n", loaded.Config.ID, loaded.Config.Title)
	fmt.Fprintf(out, "Baseline: %s   Interval: %d ms   Samples: %d\n\n",
		formatBaseline(alignment.BaselineID), alignment.IntervalMs, len(alignment.Rows))

	if chart, _ := cmd.Flags().GetBool("chart"); chart {
		fmt.Fprintln(out, renderChart(loaded.Reports, alignment, kind, chartWidth()))
		return
	}
	printAlignment(cmd, alignment, kind)
}

func renderChart(reports []*domain.Report, a analytics.Alignment, kind analytics.Kind, width int) string {
	label, suffix := "CPU usage (%)", "%"
	if kind == analytics.KindMemory {
		label, suffix = "Memory (MiB)", " MiB"
	}

	series := make([]components.ChartSeries, 0, len(reports))
	for _, r := range reports {
		legend := fmt.Sprintf("#%d %s", r.ID, r.Title)
		if a.BaselineID != nil && *a.BaselineID == r.ID {
			legend += " (base)"
		}
		series = append(series, components.ChartSeries{Legend: legend, Values: a.Series(r.ID, kind)})
	}
	return components.ComparisonChart(label, series, width, suffix)
}

func chartWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultChartWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultChartWidth
	}
	return w
}

package report

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/analytics"
	"nathanbeddoewebdev/perfsight/internal/report/domain"

	"github.com/spf13/cobra"
)

// reportDetail is the JSON shape of "report show". Batch data is omitted.
type reportDetail struct {
	ID         int64                   `json:"id"`
	Title      string                  `json:"title"`
	CreatedAt  string                  `json:"created_at"`
	Tags       []string                `json:"tags"`
	FolderPath string                  `json:"folder_path"`
	Mode       analytics.Mode          `json:"mode"`
	IntervalMs int64                   `json:"interval_ms"`
	Batches    int                     `json:"batches"`
	Processes  int                     `json:"processes"`
	Analysis   *domain.AnalysisSummary `json:"analysis"`
}

func newReportDetail(r *domain.Report) reportDetail {
	analysis := r.Analysis
	if analysis == nil {
		analysis = analytics.Analyze(r)
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return reportDetail{
		ID:         r.ID,
		Title:      r.Title,
		CreatedAt:  r.CreatedAt,
		Tags:       tags,
		FolderPath: r.FolderPath,
		Mode:       analytics.DetectMode(r.Metrics),
		IntervalMs: r.IntervalMs(),
		Batches:    len(r.Metrics),
		Processes:  len(analytics.DiscoverPIDs(r.Metrics)),
		Analysis:   analysis,
	}
}

// printReportDetail prints the report header, its summary statistics and
// the analysis insights.
func printReportDetail(cmd *cobra.Command, d reportDetail) {
	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "  ID:\t%d\n", d.ID)
	fmt.Fprintf(w, "  Title:\t%s\n", d.Title)
	fmt.Fprintf(w, "  Created:\t%s\n", d.CreatedAt)
	if d.FolderPath != "" {
		fmt.Fprintf(w, "  Folder:\t%s\n", d.FolderPath)
	}
	if len(d.Tags) > 0 {
		fmt.Fprintf(w, "  Tags:\t%s\n", strings.Join(d.Tags, ", "))
	}
	fmt.Fprintf(w, "  Mode:\t%s\n", d.Mode)
	if d.IntervalMs > 0 {
		fmt.Fprintf(w, "  Interval:\t%d ms\n", d.IntervalMs)
	}
	fmt.Fprintf(w, "  Batches:\t%d\n", d.Batches)
	fmt.Fprintf(w, "  Processes:\t%d\n", d.Processes)

	if d.Analysis == nil {
		w.Flush()
		fmt.Fprintln(out, "\nNo samples recorded.")
		return
	}
	fmt.Fprintf(w, "  Score:\t%d/100\n", d.Analysis.Score)
	w.Flush()

	s := d.Analysis.Summary
	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METRIC\tAVG\tP50\tP95\tP99\tMAX\tSTDDEV")
	fmt.Fprintln(w, "------\t---\t---\t---\t---\t---\t------")
	fmt.Fprintf(w, "CPU (%%)\t%s\t%s\t%s\t%s\t%s\t%s\n",
		present(s.AvgCPU, s.HasCPU()), cmdutil.FormatFloat(s.P50CPU, 1), present(s.P95CPU, s.HasCPU()),
		cmdutil.FormatFloat(s.P99CPU, 1), present(s.MaxCPU, s.HasCPU()), cmdutil.FormatFloat(s.CPUStddev, 1))
	fmt.Fprintf(w, "Memory (MiB)\t%s\t%s\t%s\t%s\t%s\t%s\n",
		present(s.AvgMemMB, s.HasMemory()), cmdutil.FormatFloat(s.P50MemMB, 1), cmdutil.FormatFloat(s.P95MemMB, 1),
		cmdutil.FormatFloat(s.P99MemMB, 1), present(s.MaxMemMB, s.HasMemory()), cmdutil.FormatFloat(s.MemStddevMB, 1))
	w.Flush()

	if s.HasGrowth() {
		fmt.Fprintf(out, "\nMemory growth: %.2f MiB/s\n", s.MemGrowthRate)
	} else {
		fmt.Fprintln(out, "\nMemory growth: -")
	}

	if len(d.Analysis.TopCPU) > 0 {
		fmt.Fprintln(out, "\nTop CPU contributors:")
		w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		for _, c := range d.Analysis.TopCPU {
			fmt.Fprintf(w, "  %d\t%.1f%%\t%.0f%% of total\n", c.PID, c.AvgCPU, c.CPUShare*100)
		}
		w.Flush()
	}
	if len(d.Analysis.TopMem) > 0 {
		fmt.Fprintln(out, "\nTop memory contributors:")
		w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		for _, c := range d.Analysis.TopMem {
			fmt.Fprintf(w, "  %d\t%.1f MiB\t%.0f%% of total\n", c.PID, c.AvgMemMB, c.MemShare*100)
		}
		w.Flush()
	}

	if len(d.Analysis.Insights) > 0 {
		fmt.Fprintln(out, "\nInsights:")
		for _, insight := range d.Analysis.Insights {
			fmt.Fprintf(out, "  - %s\n", insight)
		}
	}
}

// printProcesses prints one row per process with CPU and memory statistics.
func printProcesses(cmd *cobra.Command, rows []analytics.ProcessRow) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "PID\tPROCESS\tTYPE\tCPU AVG\tCPU P95\tCPU MAX\tMEM AVG\tMEM P95\tMEM MAX\tSAMPLES")
	fmt.Fprintln(w, "---\t-------\t----\t-------\t-------\t-------\t-------\t-------\t-------\t-------")

	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			r.PID,
			r.Label,
			r.ProcType,
			cmdutil.FormatFloat(r.CPU.Mean, 1),
			cmdutil.FormatFloat(r.CPU.P95, 1),
			cmdutil.FormatFloat(r.CPU.Max, 1),
			cmdutil.FormatFloat(r.MemoryMiB.Mean, 1),
			cmdutil.FormatFloat(r.MemoryMiB.P95, 1),
			cmdutil.FormatFloat(r.MemoryMiB.Max, 1),
			max(r.CPU.Count, r.MemoryMiB.Count),
		)
	}

	w.Flush()
}

// printCustomMetrics prints one block per custom metric name.
func printCustomMetrics(cmd *cobra.Command, groups []analytics.CustomMetricGroup) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METRIC\tPID\tPROCESS\tCOUNT\tMIN\tMEAN\tMAX")
	fmt.Fprintln(w, "------\t---\t-------\t-----\t---\t----\t---")

	for _, g := range groups {
		for _, r := range g.Rows {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%.2f\t%.2f\t%.2f\n",
				g.Name, r.PID, r.Label, r.Count, r.Min, r.Mean, r.Max)
		}
	}

	w.Flush()
}

// sortProcessesByMemory orders rows by mean memory descending; rows without
// memory data go last.
func sortProcessesByMemory(rows []analytics.ProcessRow) {
	slices.SortStableFunc(rows, func(a, b analytics.ProcessRow) int {
		switch {
		case a.MemoryMiB.Mean == nil && b.MemoryMiB.Mean == nil:
			return 0
		case a.MemoryMiB.Mean == nil:
			return 1
		case b.MemoryMiB.Mean == nil:
			return -1
		case *a.MemoryMiB.Mean > *b.MemoryMiB.Mean:
			return -1
		case *a.MemoryMiB.Mean < *b.MemoryMiB.Mean:
			return 1
		}
		return 0
	})
}

func filterSummaries(reports []domain.ReportSummary, folder, tag string) []domain.ReportSummary {
	if folder == "" && tag == "" {
		return reports
	}
	out := []domain.ReportSummary{}
	for _, r := range reports {
		if folder != "" && r.FolderPath != folder && !strings.HasPrefix(r.FolderPath, folder+"/") {
			continue
		}
		if tag != "" && !slices.ContainsFunc(r.Tags, func(t string) bool { return strings.EqualFold(t, tag) }) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func formatDuration(seconds int64) string {
	if seconds <= 0 {
		return "-"
	}
	return (time.Duration(seconds) * time.Second).String()
}

// present formats a required summary value, or "-" when its series was empty.
func present(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return cmdutil.FormatFloat(&v, 1)
}

package compare

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"nathanbeddoewebdev/perfsight/cmd/commands/cmdutil"
	"nathanbeddoewebdev/perfsight/internal/analytics"
	"nathanbeddoewebdev/perfsight/internal/report/domain"

	"github.com/spf13/cobra"
)

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func formatBaseline(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}

// printAlignment prints one row per aligned sample with one column per
// report.
func printAlignment(cmd *cobra.Command, a analytics.Alignment, kind analytics.Kind) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)

	header := []string{"TIME (S)"}
	underline := []string{"--------"}
	for _, id := range a.ReportIDs {
		col := "#" + strconv.FormatInt(id, 10)
		if a.BaselineID != nil && *a.BaselineID == id {
			col += " (base)"
		}
		header = append(header, col)
		underline = append(underline, strings.Repeat("-", len(col)))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	fmt.Fprintln(w, strings.Join(underline, "\t"))

	for _, row := range a.Rows {
		values := row.CPU
		if kind == analytics.KindMemory {
			values = row.MemoryMiB
		}
		cells := []string{strconv.FormatFloat(row.TimeS, 'f', 1, 64)}
		for _, id := range a.ReportIDs {
			cells = append(cells, cmdutil.FormatFloat(values[id], 1))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	w.Flush()
}

// printDrivers prints the ranked CPU and memory drivers of every target
// report.
func printDrivers(cmd *cobra.Command, reports []analytics.DriverReport) {
	out := cmd.OutOrStdout()

	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "Report %d: %s\n", r.ReportID, r.Title)
		printDriverBlock(cmd, "CPU (%)", r.CPU)
		printDriverBlock(cmd, "Memory (MiB)", r.MemoryMiB)
	}
}

func printDriverBlock(cmd *cobra.Command, label string, drivers []analytics.Driver) {
	out := cmd.OutOrStdout()
	if len(drivers) == 0 {
		fmt.Fprintf(out, "  %s: no changes\n", label)
		return
	}

	fmt.Fprintf(out, "  %s\n", label)
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "    PID\tPROCESS\tBASELINE\tTARGET\tDELTA")
	fmt.Fprintln(w, "    ---\t-------\t--------\t------\t-----")
	for _, d := range drivers {
		delta := d.Delta
		fmt.Fprintf(w, "    %d\t%s\t%.1f\t%.1f\t%s\n",
			d.PID, d.Label, d.Baseline, d.Target, cmdutil.FormatDelta(&delta, 1))
	}
	w.Flush()
}

// printGroups prints one row per group with the average of every field and,
// for non-baseline groups, the delta against the baseline group.
func printGroups(cmd *cobra.Command, gc analytics.GroupComparison) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)

	header := []string{"GROUP", "MODE", "TAGS", "REPORTS"}
	underline := []string{"-----", "----", "----", "-------"}
	for _, f := range analytics.GroupFields {
		col := strings.ToUpper(string(f))
		header = append(header, col)
		underline = append(underline, strings.Repeat("-", len(col)))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	fmt.Fprintln(w, strings.Join(underline, "\t"))

	for _, g := range gc.Groups {
		name := g.Name
		if g.Baseline {
			name += " (base)"
		}
		cells := []string{name, string(g.Mode), strings.Join(g.Tags, ","), strconv.Itoa(len(g.Members))}
		for _, f := range analytics.GroupFields {
			cell := cmdutil.FormatFloat(g.Fields[f].Avg, 2)
			if d, ok := g.Deltas[f]; ok && d != nil {
				cell += " (" + cmdutil.FormatDelta(d, 2) + ")"
			}
			cells = append(cells, cell)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	w.Flush()
}

// parseGroupFlag parses "name", "name:tags" or "name:mode:tags" where tags
// is a comma-separated list and mode is any or all.
func parseGroupFlag(s string) (domain.GroupDef, error) {
	parts := strings.SplitN(s, ":", 3)
	def := domain.GroupDef{Name: strings.TrimSpace(parts[0]), Mode: domain.MatchAny}
	if def.Name == "" {
		return def, fmt.Errorf("invalid group %q: missing name: %w", s, domain.ErrInvalidInput)
	}

	var tags string
	switch len(parts) {
	case 2:
		tags = parts[1]
	case 3:
		def.Mode = domain.MatchMode(strings.ToLower(strings.TrimSpace(parts[1])))
		if def.Mode != domain.MatchAny && def.Mode != domain.MatchAll {
			return def, fmt.Errorf("invalid group %q: mode must be any or all: %w", s, domain.ErrInvalidInput)
		}
		tags = parts[2]
	}

	for tag := range strings.SplitSeq(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			def.Tags = append(def.Tags, tag)
		}
	}
	return def, nil
}

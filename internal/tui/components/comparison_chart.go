package components

import (
	"fmt"
	"math"
	"strings"

	"nathanbeddoewebdev/perfsight/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// chartHeight is the fixed height of comparison charts.
const chartHeight = 10

// seriesColors cycles over the reports of a comparison.
var seriesColors = []asciigraph.AnsiColor{
	asciigraph.DodgerBlue,
	asciigraph.LightCoral,
	asciigraph.MediumSeaGreen,
	asciigraph.Gold,
	asciigraph.Orchid,
	asciigraph.DarkOrange,
}

// ChartSeries is one report's aligned column. Nil cells are gaps.
type ChartSeries struct {
	Legend string
	Values []*float64
}

// ComparisonChart overlays several aligned series on a shared sample axis,
// with one legend and one summary line per series.
func ComparisonChart(label string, series []ChartSeries, width int, suffix string) string {
	data := make([][]float64, 0, len(series))
	legends := make([]string, 0, len(series))
	colors := make([]asciigraph.AnsiColor, 0, len(series))
	var summaryParts []string
	for i, s := range series {
		values := toPlot(s.Values)
		data = append(data, values)
		legends = append(legends, s.Legend)
		colors = append(colors, seriesColors[i%len(seriesColors)])
		summaryParts = append(summaryParts, summaryLine(s.Legend, values, suffix))
	}
	if !hasFinite(data) {
		return styles.MutedText.Render(label + ": no data")
	}

	// Reserve space for Y-axis labels (number + " ┤" ≈ 9 chars).
	plotWidth := width - 9
	if plotWidth < 10 {
		plotWidth = 10
	}

	chart := asciigraph.PlotMany(data,
		asciigraph.Height(chartHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Precision(1),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
		asciigraph.LabelColor(asciigraph.Default),
	)

	summary := styles.MutedText.Render(strings.Join(summaryParts, "\n"))
	header := styles.Label.Render(label)
	return lipgloss.JoinVertical(lipgloss.Left, header, chart, summary)
}

// toPlot maps nil cells to NaN, which asciigraph draws as gaps.
func toPlot(values []*float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out
}

func hasFinite(data [][]float64) bool {
	for _, s := range data {
		for _, v := range s {
			if !math.IsNaN(v) {
				return true
			}
		}
	}
	return false
}

func summaryLine(legend string, values []float64, suffix string) string {
	lo, hi, mean, ok := minMaxMean(values)
	if !ok {
		return fmt.Sprintf("  %s  no data", legend)
	}
	return fmt.Sprintf("  %s  avg: %s  min: %s  max: %s",
		legend, formatValue(mean, suffix), formatValue(lo, suffix), formatValue(hi, suffix))
}

// minMaxMean skips NaN cells. ok is false when every cell is NaN.
func minMaxMean(data []float64) (lo, hi, mean float64, ok bool) {
	var sum float64
	var n int
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		if n == 0 || v < lo {
			lo = v
		}
		if n == 0 || v > hi {
			hi = v
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, 0, 0, false
	}
	return lo, hi, sum / float64(n), true
}

// formatValue renders a float with an optional suffix, using human-readable
// formatting for large values.
func formatValue(v float64, suffix string) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM%s", v/1_000_000, suffix)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK%s", v/1_000, suffix)
	default:
		return fmt.Sprintf("%.1f%s", v, suffix)
	}
}

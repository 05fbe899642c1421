package analytics

import (
	"maps"
	"slices"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// UngroupedPID holds log-level custom metrics not tied to a process.
const UngroupedPID = 0

// CustomMetricRow summarizes one custom metric for one PID.
type CustomMetricRow struct {
	PID   int     `json:"pid"`
	Label string  `json:"label"`
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// CustomMetricGroup holds every PID row for one metric name.
type CustomMetricGroup struct {
	Name string            `json:"name"`
	Rows []CustomMetricRow `json:"rows"`
}

type accumulator struct {
	count    int
	sum      float64
	min, max float64
}

func (a *accumulator) add(v float64) {
	if a.count == 0 || v < a.min {
		a.min = v
	}
	if a.count == 0 || v > a.max {
		a.max = v
	}
	a.sum += v
	a.count++
}

// SummarizeCustomMetrics groups custom metric values by name, then by PID.
// Absent and non-numeric values are skipped. Groups are sorted by name and
// rows by PID.
func SummarizeCustomMetrics(r *domain.Report) []CustomMetricGroup {
	if r == nil {
		return nil
	}
	byName := make(map[string]map[int]*accumulator)
	for _, b := range MergeBatches(r.Metrics) {
		for pid, s := range b.Metrics {
			for name, reading := range s.CustomMetrics {
				v, ok := reading.Get()
				if !ok {
					continue
				}
				byPID, ok := byName[name]
				if !ok {
					byPID = make(map[int]*accumulator)
					byName[name] = byPID
				}
				acc, ok := byPID[pid]
				if !ok {
					acc = &accumulator{}
					byPID[pid] = acc
				}
				acc.add(v)
			}
		}
	}

	groups := make([]CustomMetricGroup, 0, len(byName))
	for _, name := range slices.Sorted(maps.Keys(byName)) {
		byPID := byName[name]
		g := CustomMetricGroup{Name: name}
		for _, pid := range slices.Sorted(maps.Keys(byPID)) {
			acc := byPID[pid]
			g.Rows = append(g.Rows, CustomMetricRow{
				PID:   pid,
				Label: customLabel(r, pid),
				Count: acc.count,
				Min:   acc.min,
				Max:   acc.max,
				Mean:  acc.sum / float64(acc.count),
			})
		}
		groups = append(groups, g)
	}
	return groups
}

func customLabel(r *domain.Report, pid int) string {
	if pid == UngroupedPID {
		return "Ungrouped"
	}
	return Describe(r, pid).Label
}

package analytics

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
	"nathanbeddoewebdev/perfsight/internal/stats"
)

const (
	// CollapsedTopK is the number of drivers shown per target by default.
	CollapsedTopK = 2
	// ExpandedTopK is the number of drivers shown when a target is expanded.
	ExpandedTopK = 6
)

// Driver is one PID's contribution to the difference between a target and
// the baseline.
type Driver struct {
	PID      int     `json:"pid"`
	Label    string  `json:"label"`
	Baseline float64 `json:"baseline"`
	Target   float64 `json:"target"`
	Delta    float64 `json:"delta"`
}

// DriverReport ranks the per-PID deltas of one target against the baseline.
type DriverReport struct {
	ReportID  int64    `json:"report_id"`
	Title     string   `json:"title"`
	CPU       []Driver `json:"cpu"`
	MemoryMiB []Driver `json:"memory_mib"`
}

// TopK returns a copy keeping at most k drivers per kind.
func (d DriverReport) TopK(k int) DriverReport {
	k = max(k, 0)
	d.CPU = slices.Clone(d.CPU[:min(k, len(d.CPU))])
	d.MemoryMiB = slices.Clone(d.MemoryMiB[:min(k, len(d.MemoryMiB))])
	return d
}

// AnalyzeDrivers compares every target with the baseline. For each kind the
// per-PID means are taken within each report's own selection; a PID missing
// on one side counts as 0 there. Drivers with a zero delta are dropped and
// the rest are sorted by absolute delta descending, then PID ascending.
// Targets with the baseline's id are skipped.
func AnalyzeDrivers(baseline *domain.Report, targets []*domain.Report, sel Selections) ([]DriverReport, error) {
	if baseline == nil {
		return nil, fmt.Errorf("analytics: drivers: no baseline: %w", ErrUnknownReport)
	}

	baseCPU := pidMeans(baseline, sel.resolve(baseline, KindCPU), CPUField)
	baseMem := pidMeans(baseline, sel.resolve(baseline, KindMemory), InMiB(MemoryField))

	out := make([]DriverReport, 0, len(targets))
	for _, t := range targets {
		if t == nil || t.ID == baseline.ID {
			continue
		}
		out = append(out, DriverReport{
			ReportID:  t.ID,
			Title:     t.Title,
			CPU:       rankDrivers(baseline, t, baseCPU, pidMeans(t, sel.resolve(t, KindCPU), CPUField)),
			MemoryMiB: rankDrivers(baseline, t, baseMem, pidMeans(t, sel.resolve(t, KindMemory), InMiB(MemoryField))),
		})
	}
	return out, nil
}

// pidMeans returns the mean of field per selected PID. Selected PIDs without
// any value are absent from the result.
func pidMeans(r *domain.Report, include PIDSet, field Field) map[int]float64 {
	out := make(map[int]float64)
	for pid, series := range ExtractByPID(r.Metrics, include, field, r.IntervalMs()) {
		if m, ok := stats.Mean(series.Values); ok {
			out[pid] = m
		}
	}
	return out
}

func rankDrivers(baseline, target *domain.Report, base, tgt map[int]float64) []Driver {
	pids := make(PIDSet, len(base)+len(tgt))
	for pid := range base {
		pids.Add(pid)
	}
	for pid := range tgt {
		pids.Add(pid)
	}

	var drivers []Driver
	for _, pid := range pids.Sorted() {
		b, t := base[pid], tgt[pid]
		delta := t - b
		if delta == 0 {
			continue
		}
		label := Describe(target, pid).Label
		if _, ok := tgt[pid]; !ok {
			label = Describe(baseline, pid).Label
		}
		drivers = append(drivers, Driver{PID: pid, Label: label, Baseline: b, Target: t, Delta: delta})
	}

	slices.SortStableFunc(drivers, func(a, b Driver) int {
		if c := cmp.Compare(math.Abs(b.Delta), math.Abs(a.Delta)); c != 0 {
			return c
		}
		return cmp.Compare(a.PID, b.PID)
	})
	return drivers
}

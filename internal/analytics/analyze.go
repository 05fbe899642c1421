package analytics

import (
	"cmp"
	"fmt"
	"slices"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
	"nathanbeddoewebdev/perfsight/internal/stats"
)

// Scoring policy for Analyze.
const (
	scoreAvgCPULimit     = 30.0
	scoreAvgCPUWeight    = 0.5
	scoreSpikeLimit      = 80.0
	scoreSpikePenalty    = 10.0
	scoreGrowthHigh      = 0.5
	scoreGrowthWeight    = 20.0
	scoreGrowthSlight    = 0.1
	scoreGrowthSlightPen = 5.0

	topContributors = 5
)

// Analyze computes the stored summary of a report from the totals of every
// batch. It returns nil for a report without batches.
func Analyze(r *domain.Report) *domain.AnalysisSummary {
	if r == nil || len(r.Metrics) == 0 {
		return nil
	}

	merged := MergeBatches(r.Metrics)
	elapsed := ElapsedSeconds(merged, r.IntervalMs())
	memMiB := InMiB(MemoryField)

	var cpu, mem stats.Series
	for i, b := range merged {
		if total, ok := batchTotal(b, CPUField); ok {
			cpu.Append(total, elapsed[i])
		}
		if total, ok := batchTotal(b, memMiB); ok {
			mem.Append(total, elapsed[i])
		}
	}

	cs := stats.Summarize(cpu, stats.CPUThresholds)
	ms := stats.Summarize(mem, stats.MemoryThresholdsMiB)
	summary := domain.MetricSummary{
		CPUSamples:      cs.Count,
		MemSamples:      ms.Count,
		AvgCPU:          stats.Deref(cs.Mean),
		MaxCPU:          stats.Deref(cs.Max),
		P50CPU:          cs.P50,
		P90CPU:          cs.P90,
		P95CPU:          stats.Deref(cs.P95),
		P99CPU:          cs.P99,
		CPUStddev:       cs.StdDev,
		CPUHighRatio30:  cs.HighRatio,
		CPUHighRatio60:  cs.CriticalRatio,
		AvgMemMB:        stats.Deref(ms.Mean),
		MaxMemMB:        stats.Deref(ms.Max),
		P50MemMB:        ms.P50,
		P90MemMB:        ms.P90,
		P95MemMB:        ms.P95,
		P99MemMB:        ms.P99,
		MemStddevMB:     ms.StdDev,
		MemHighRatio512: ms.HighRatio,
		MemHighRatio1G:  ms.CriticalRatio,
		MemGrowthRate:   stats.Deref(ms.GrowthRate),
	}

	score, insights := scoreSummary(summary)
	topCPU, topMem := contributors(r)
	return &domain.AnalysisSummary{
		Score:    score,
		Summary:  summary,
		TopCPU:   topCPU,
		TopMem:   topMem,
		Insights: insights,
	}
}

func batchTotal(b domain.MetricBatch, field Field) (float64, bool) {
	var total float64
	found := false
	for _, pid := range sortedPIDs(b.Metrics) {
		if v, ok := field(b.Metrics[pid]); ok {
			total += v
			found = true
		}
	}
	return total, found
}

func scoreSummary(s domain.MetricSummary) (int, []string) {
	score := 100.0
	insights := []string{}

	if s.AvgCPU > scoreAvgCPULimit {
		score -= (s.AvgCPU - scoreAvgCPULimit) * scoreAvgCPUWeight
		insights = append(insights, fmt.Sprintf("High average CPU usage: %.1f%%", s.AvgCPU))
	}
	if s.MaxCPU > scoreSpikeLimit {
		score -= scoreSpikePenalty
		insights = append(insights, fmt.Sprintf("CPU spike detected: %.1f%%", s.MaxCPU))
	}
	switch growth := s.MemGrowthRate; {
	case growth > scoreGrowthHigh:
		score -= growth * scoreGrowthWeight
		insights = append(insights, fmt.Sprintf("High memory growth detected (+%.2f MB/s)", growth))
	case growth > scoreGrowthSlight:
		score -= scoreGrowthSlightPen
		insights = append(insights, "Slight memory growth trend detected")
	}

	return int(min(max(score, 0), 100)), insights
}

// contributors ranks the per-PID means of the whole report. Shares are
// fractions of the summed means.
func contributors(r *domain.Report) (topCPU, topMem []domain.Contributor) {
	interval := r.IntervalMs()
	cpu := ExtractByPID(r.Metrics, nil, CPUField, interval)
	mem := ExtractByPID(r.Metrics, nil, InMiB(MemoryField), interval)

	var all []domain.Contributor
	var withCPU, withMem []int
	var cpuTotal, memTotal float64
	for _, pid := range DiscoverPIDs(r.Metrics) {
		c := domain.Contributor{PID: pid}
		var ok bool
		if c.AvgCPU, ok = stats.Mean(cpu[pid].Values); ok {
			withCPU = append(withCPU, len(all))
		}
		if c.AvgMemMB, ok = stats.Mean(mem[pid].Values); ok {
			withMem = append(withMem, len(all))
		}
		cpuTotal += c.AvgCPU
		memTotal += c.AvgMemMB
		all = append(all, c)
	}
	for i := range all {
		if cpuTotal > 0 {
			all[i].CPUShare = all[i].AvgCPU / cpuTotal
		}
		if memTotal > 0 {
			all[i].MemShare = all[i].AvgMemMB / memTotal
		}
	}

	// Processes without readings of a kind are not ranked for it.
	rank := func(idx []int, key func(domain.Contributor) float64) []domain.Contributor {
		ranked := make([]domain.Contributor, len(idx))
		for i, j := range idx {
			ranked[i] = all[j]
		}
		slices.SortStableFunc(ranked, func(a, b domain.Contributor) int {
			if c := cmp.Compare(key(b), key(a)); c != 0 {
				return c
			}
			return cmp.Compare(a.PID, b.PID)
		})
		return ranked[:min(topContributors, len(ranked))]
	}
	topCPU = rank(withCPU, func(c domain.Contributor) float64 { return c.AvgCPU })
	topMem = rank(withMem, func(c domain.Contributor) float64 { return c.AvgMemMB })
	return topCPU, topMem
}

package domain

// AnalysisSummary is the precomputed per-report analysis stored with a report.
type AnalysisSummary struct {
	Score    int           `json:"score"`
	Summary  MetricSummary `json:"summary"`
	TopCPU   []Contributor `json:"top_cpu,omitempty"`
	TopMem   []Contributor `json:"top_mem,omitempty"`
	Insights []string      `json:"insights"`
}

// MetricSummary holds the aggregate statistics of a report. Optional fields
// are nil when the underlying series was too short to define them. The
// required CPU and memory fields are only meaningful when the matching
// sample count is positive; see HasCPU and HasMemory.
type MetricSummary struct {
	CPUSamples      int      `json:"cpu_samples"`
	MemSamples      int      `json:"mem_samples"`
	AvgCPU          float64  `json:"avg_cpu"`
	MaxCPU          float64  `json:"max_cpu"`
	P50CPU          *float64 `json:"p50_cpu,omitempty"`
	P90CPU          *float64 `json:"p90_cpu,omitempty"`
	P95CPU          float64  `json:"p95_cpu"`
	P99CPU          *float64 `json:"p99_cpu,omitempty"`
	CPUStddev       *float64 `json:"cpu_stddev,omitempty"`
	CPUHighRatio30  *float64 `json:"cpu_high_ratio_30,omitempty"`
	CPUHighRatio60  *float64 `json:"cpu_high_ratio_60,omitempty"`
	AvgMemMB        float64  `json:"avg_mem_mb"`
	MaxMemMB        float64  `json:"max_mem_mb"`
	P50MemMB        *float64 `json:"p50_mem_mb,omitempty"`
	P90MemMB        *float64 `json:"p90_mem_mb,omitempty"`
	P95MemMB        *float64 `json:"p95_mem_mb,omitempty"`
	P99MemMB        *float64 `json:"p99_mem_mb,omitempty"`
	MemStddevMB     *float64 `json:"mem_stddev_mb,omitempty"`
	MemHighRatio512 *float64 `json:"mem_high_ratio_512,omitempty"`
	MemHighRatio1G  *float64 `json:"mem_high_ratio_1024,omitempty"`
	MemGrowthRate   float64  `json:"mem_growth_rate"`
}

// HasCPU reports whether any batch carried a CPU reading.
func (s MetricSummary) HasCPU() bool { return s.CPUSamples > 0 }

// HasMemory reports whether any batch carried a memory reading.
func (s MetricSummary) HasMemory() bool { return s.MemSamples > 0 }

// HasGrowth reports whether MemGrowthRate was computed from at least two
// memory samples.
func (s MetricSummary) HasGrowth() bool { return s.MemSamples > 1 }

// Contributor is one process's share of a report's total usage.
type Contributor struct {
	PID      int     `json:"pid"`
	AvgCPU   float64 `json:"avg_cpu"`
	CPUShare float64 `json:"cpu_share"`
	AvgMemMB float64 `json:"avg_mem_mb"`
	MemShare float64 `json:"mem_share"`
}

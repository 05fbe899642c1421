package analytics

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

func TestDescribe_LabelFallback(t *testing.T) {
	r := &domain.Report{Meta: &domain.Metadata{
		ProcessAliases: []domain.ProcessAlias{{PID: 4, Alias: "worker"}},
		ProcessSnapshot: []domain.ProcessInfo{
			{PID: 1, Alias: "main", Title: "Tab", Name: "chrome", ProcType: "Browser"},
			{PID: 2, Title: "Tab", Name: "chrome"},
			{PID: 3, Name: "chrome"},
			{PID: 4, Name: "node"},
		},
	}}

	tests := []struct {
		pid  int
		want string
	}{
		{1, "main"},
		{2, "Tab"},
		{3, "chrome"},
		{4, "worker"},
		{5, "Process 5"},
	}
	for _, tt := range tests {
		if got := Describe(r, tt.pid).Label; got != tt.want {
			t.Errorf("Describe(%d).Label = %q, want %q", tt.pid, got, tt.want)
		}
	}
	if got := Describe(r, 1).ProcType; got != "Browser" {
		t.Errorf("ProcType = %q, want Browser", got)
	}
}

func TestSummarizeProcesses_SortAndUnits(t *testing.T) {
	r := &domain.Report{
		Metrics: []domain.MetricBatch{
			batch(0, map[int]domain.MetricSample{
				1: sample(10, 100),
				2: sample(50, 600),
				3: sample(10, 200),
				4: {GPUUsage: domain.Some(5)},
			}),
			batch(1, map[int]domain.MetricSample{
				1: sample(20, 100),
				2: sample(70, 1200),
				3: sample(20, 200),
			}),
		},
	}

	rows := SummarizeProcesses(r)

	var pids []int
	for _, row := range rows {
		pids = append(pids, row.PID)
	}
	if diff := cmp.Diff([]int{2, 1, 3}, pids); diff != "" {
		t.Fatalf("row order (-want +got):\n%s", diff)
	}

	top := rows[0]
	if *top.CPU.Mean != 60 {
		t.Errorf("CPU mean = %v, want 60", *top.CPU.Mean)
	}
	if *top.MemoryMiB.Mean != 900 {
		t.Errorf("memory mean = %v MiB, want 900", *top.MemoryMiB.Mean)
	}
	if *top.MemoryMiB.HighRatio != 1 || *top.MemoryMiB.CriticalRatio != 0.5 {
		t.Errorf("memory ratios = %v/%v, want 1/0.5", *top.MemoryMiB.HighRatio, *top.MemoryMiB.CriticalRatio)
	}
	if *top.CPU.HighRatio != 1 || *top.CPU.CriticalRatio != 0.5 {
		t.Errorf("cpu ratios = %v/%v, want 1/0.5", *top.CPU.HighRatio, *top.CPU.CriticalRatio)
	}
	if math.Abs(*top.MemoryMiB.GrowthRate-600) > 1e-9 {
		t.Errorf("memory growth = %v MiB/s, want 600", *top.MemoryMiB.GrowthRate)
	}
	if top.GPUMean != nil {
		t.Errorf("GPUMean = %v, want nil", *top.GPUMean)
	}
}

func TestSummarizeProcesses_CPUOnlyAndMemoryOnly(t *testing.T) {
	r := &domain.Report{Metrics: []domain.MetricBatch{
		batch(0, map[int]domain.MetricSample{1: memSample(10), 2: cpuSample(5)}),
	}}

	rows := SummarizeProcesses(r)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].PID != 2 || rows[1].PID != 1 {
		t.Errorf("order = %d,%d; want 2,1 (no CPU sorts last)", rows[0].PID, rows[1].PID)
	}
	if rows[1].CPU.Mean != nil || rows[1].CPU.P95 != nil {
		t.Error("memory-only row should have undefined CPU stats")
	}
}

func TestSummarizeCustomMetrics(t *testing.T) {
	r := &domain.Report{
		Meta: &domain.Metadata{ProcessSnapshot: []domain.ProcessInfo{{PID: 3, Name: "renderer"}}},
		Metrics: []domain.MetricBatch{
			batch(0, map[int]domain.MetricSample{
				0: {CustomMetrics: map[string]domain.Reading{"fps": domain.Some(30)}},
				3: {CustomMetrics: map[string]domain.Reading{"fps": domain.Some(60), "latency": domain.Some(5)}},
			}),
			batch(1, map[int]domain.MetricSample{
				0: {CustomMetrics: map[string]domain.Reading{"fps": domain.Some(50), "bad": {}}},
				3: {CustomMetrics: map[string]domain.Reading{"latency": domain.Some(15)}},
			}),
		},
	}

	got := SummarizeCustomMetrics(r)

	want := []CustomMetricGroup{
		{Name: "fps", Rows: []CustomMetricRow{
			{PID: 0, Label: "Ungrouped", Count: 2, Min: 30, Max: 50, Mean: 40},
			{PID: 3, Label: "renderer", Count: 1, Min: 60, Max: 60, Mean: 60},
		}},
		{Name: "latency", Rows: []CustomMetricRow{
			{PID: 3, Label: "renderer", Count: 2, Min: 5, Max: 15, Mean: 10},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SummarizeCustomMetrics (-want +got):\n%s", diff)
	}
}

package analytics

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

func TestAnalyze_Empty(t *testing.T) {
	if got := Analyze(&domain.Report{}); got != nil {
		t.Errorf("Analyze(empty) = %+v, want nil", got)
	}
}

func TestAnalyze_StableRun(t *testing.T) {
	r := constantReport(1, 4, map[int][2]float64{1: {5, 100}, 2: {15, 300}})

	got := Analyze(r)

	if got.Score != 100 {
		t.Errorf("score = %d, want 100", got.Score)
	}
	if len(got.Insights) != 0 {
		t.Errorf("insights = %v, want none", got.Insights)
	}
	if got.Summary.AvgCPU != 20 || got.Summary.AvgMemMB != 400 {
		t.Errorf("totals = %v%% / %v MiB, want 20 / 400", got.Summary.AvgCPU, got.Summary.AvgMemMB)
	}
	if got.Summary.MemGrowthRate != 0 {
		t.Errorf("growth = %v, want 0", got.Summary.MemGrowthRate)
	}

	wantTop := []domain.Contributor{
		{PID: 2, AvgCPU: 15, CPUShare: 0.75, AvgMemMB: 300, MemShare: 0.75},
		{PID: 1, AvgCPU: 5, CPUShare: 0.25, AvgMemMB: 100, MemShare: 0.25},
	}
	if diff := cmp.Diff(wantTop, got.TopCPU); diff != "" {
		t.Errorf("top_cpu (-want +got):\n%s", diff)
	}
}

func TestAnalyze_Penalties(t *testing.T) {
	// Total CPU 50, 90, 70 and memory growing 1 MiB/s.
	r := &domain.Report{Metrics: []domain.MetricBatch{
		batch(0, map[int]domain.MetricSample{1: sample(50, 100)}),
		batch(1, map[int]domain.MetricSample{1: sample(90, 101)}),
		batch(2, map[int]domain.MetricSample{1: sample(70, 102)}),
	}}

	got := Analyze(r)

	// 100 - (70-30)*0.5 - 10 - 1*20 = 50
	if got.Score != 50 {
		t.Errorf("score = %d, want 50", got.Score)
	}
	if math.Abs(got.Summary.MemGrowthRate-1) > 1e-9 {
		t.Errorf("growth = %v, want 1", got.Summary.MemGrowthRate)
	}
	wantInsights := []string{
		"High average CPU usage: 70.0%",
		"CPU spike detected: 90.0%",
		"High memory growth detected (+1.00 MB/s)",
	}
	if diff := cmp.Diff(wantInsights, got.Insights); diff != "" {
		t.Errorf("insights (-want +got):\n%s", diff)
	}
}

func TestAnalyze_MemoryOnly(t *testing.T) {
	r := &domain.Report{Metrics: []domain.MetricBatch{
		batch(0, map[int]domain.MetricSample{1: memSample(100), 2: memSample(50)}),
		batch(1, map[int]domain.MetricSample{1: memSample(100), 2: memSample(50)}),
	}}

	got := Analyze(r)

	s := got.Summary
	if s.HasCPU() || s.CPUSamples != 0 {
		t.Errorf("cpu samples = %d, want 0", s.CPUSamples)
	}
	if !s.HasMemory() || !s.HasGrowth() || s.MemSamples != 2 {
		t.Errorf("mem samples = %d, want 2", s.MemSamples)
	}
	if s.AvgMemMB != 150 {
		t.Errorf("AvgMemMB = %v, want 150", s.AvgMemMB)
	}
	if len(got.TopCPU) != 0 {
		t.Errorf("top_cpu = %+v, want none", got.TopCPU)
	}
	if len(got.TopMem) != 2 || got.TopMem[0].PID != 1 {
		t.Errorf("top_mem = %+v", got.TopMem)
	}
}

func TestScoreSummary_ClampsAndSlightGrowth(t *testing.T) {
	score, insights := scoreSummary(domain.MetricSummary{AvgCPU: 400, MaxCPU: 400, MemGrowthRate: 3})
	if score != 0 {
		t.Errorf("score = %d, want 0", score)
	}
	if len(insights) != 3 {
		t.Errorf("insights = %v", insights)
	}

	score, insights = scoreSummary(domain.MetricSummary{MemGrowthRate: 0.2})
	if score != 95 || len(insights) != 1 || insights[0] != "Slight memory growth trend detected" {
		t.Errorf("slight growth: score %d, insights %v", score, insights)
	}
}

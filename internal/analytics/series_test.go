package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// --- helpers ---

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ts(sec int) string {
	return t0.Add(time.Duration(sec) * time.Second).Format(time.RFC3339Nano)
}

func cpuSample(v float64) domain.MetricSample {
	return domain.MetricSample{CPUOSUsage: domain.Some(v)}
}

func memSample(mib float64) domain.MetricSample {
	return domain.MetricSample{MemoryPrivate: domain.Some(mib * BytesPerMiB)}
}

func sample(cpu, mib float64) domain.MetricSample {
	return domain.MetricSample{
		CPUOSUsage:    domain.Some(cpu),
		MemoryPrivate: domain.Some(mib * BytesPerMiB),
	}
}

func batch(sec int, metrics map[int]domain.MetricSample) domain.MetricBatch {
	return domain.MetricBatch{Timestamp: ts(sec), Metrics: metrics}
}

// constantReport builds a report of n one-second batches where every PID in
// pids reports the same cpu and memory values.
func constantReport(id int64, n int, pids map[int][2]float64) *domain.Report {
	r := &domain.Report{
		ID:    id,
		Title: fmt.Sprintf("Report %d", id),
		Meta:  &domain.Metadata{Collection: &domain.Collection{IntervalMs: 1000}},
	}
	for i := range n {
		m := make(map[int]domain.MetricSample, len(pids))
		for pid, v := range pids {
			m[pid] = sample(v[0], v[1])
		}
		r.Metrics = append(r.Metrics, batch(i, m))
	}
	return r
}

// --- tests ---

func TestCPUField_Priority(t *testing.T) {
	tests := []struct {
		name string
		s    domain.MetricSample
		want float64
		ok   bool
	}{
		{"os wins", domain.MetricSample{CPUOSUsage: domain.Some(1), CPUChromeUsage: domain.Some(2), CPUUsage: domain.Some(3)}, 1, true},
		{"chrome fallback", domain.MetricSample{CPUChromeUsage: domain.Some(2), CPUUsage: domain.Some(3)}, 2, true},
		{"legacy fallback", domain.MetricSample{CPUUsage: domain.Some(3)}, 3, true},
		{"none", domain.MetricSample{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CPUField(tt.s)
			if got != tt.want || ok != tt.ok {
				t.Errorf("CPUField = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMemoryField_Priority(t *testing.T) {
	s := domain.MetricSample{MemoryFootprint: domain.Some(20), MemoryRSS: domain.Some(30)}
	if got, _ := MemoryField(s); got != 20 {
		t.Errorf("MemoryField = %v, want footprint 20", got)
	}
	s.MemoryPrivate = domain.Some(10)
	if got, _ := MemoryField(s); got != 10 {
		t.Errorf("MemoryField = %v, want private 10", got)
	}
	if got, _ := InMiB(MemoryField)(domain.MetricSample{MemoryRSS: domain.Some(3 * BytesPerMiB)}); got != 3 {
		t.Errorf("InMiB(MemoryField) = %v, want 3", got)
	}
}

func TestMergeBatches_SameTimestamp(t *testing.T) {
	batches := []domain.MetricBatch{
		batch(0, map[int]domain.MetricSample{1: cpuSample(10)}),
		batch(0, map[int]domain.MetricSample{2: cpuSample(20)}),
		batch(1, map[int]domain.MetricSample{1: cpuSample(11)}),
	}

	merged := MergeBatches(batches)

	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	if diff := cmp.Diff([]int{1, 2}, sortedPIDs(merged[0].Metrics)); diff != "" {
		t.Errorf("merged row PIDs (-want +got):\n%s", diff)
	}
	if len(batches[0].Metrics) != 1 {
		t.Error("input batch was modified")
	}
}

func TestMergeBatches_LaterSampleWins(t *testing.T) {
	merged := MergeBatches([]domain.MetricBatch{
		batch(0, map[int]domain.MetricSample{1: cpuSample(10)}),
		batch(0, map[int]domain.MetricSample{1: cpuSample(99)}),
	})
	if got, _ := CPUField(merged[0].Metrics[1]); got != 99 {
		t.Errorf("CPU = %v, want 99", got)
	}
}

func TestExtract_DropsMissingAndFilters(t *testing.T) {
	batches := []domain.MetricBatch{
		batch(0, map[int]domain.MetricSample{1: cpuSample(10), 2: {}, 3: cpuSample(30)}),
		batch(1, map[int]domain.MetricSample{1: cpuSample(12), 2: cpuSample(22)}),
	}

	if diff := cmp.Diff([]float64{10, 30, 12, 22}, Extract(batches, nil, CPUField)); diff != "" {
		t.Errorf("Extract(all) (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{10, 12}, Extract(batches, NewPIDSet(1), CPUField)); diff != "" {
		t.Errorf("Extract(pid 1) (-want +got):\n%s", diff)
	}
	if got := Extract(batches, NewPIDSet(), CPUField); len(got) != 0 {
		t.Errorf("Extract(empty set) = %v, want none", got)
	}
}

func TestExtractByPID_ElapsedFromTimestamps(t *testing.T) {
	batches := []domain.MetricBatch{
		batch(0, map[int]domain.MetricSample{7: cpuSample(1)}),
		batch(2, map[int]domain.MetricSample{7: cpuSample(2)}),
		batch(5, map[int]domain.MetricSample{7: cpuSample(3)}),
	}
	got := ExtractByPID(batches, nil, CPUField, 1000)
	if diff := cmp.Diff([]float64{0, 2, 5}, got[7].Elapsed); diff != "" {
		t.Errorf("Elapsed (-want +got):\n%s", diff)
	}
}

func TestElapsedSeconds_FallsBackToInterval(t *testing.T) {
	batches := []domain.MetricBatch{{Timestamp: "a"}, {Timestamp: "b"}, {Timestamp: "c"}}
	if diff := cmp.Diff([]float64{0, 0.5, 1}, ElapsedSeconds(batches, 500)); diff != "" {
		t.Errorf("ElapsedSeconds(500) (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 1, 2}, ElapsedSeconds(batches, 0)); diff != "" {
		t.Errorf("ElapsedSeconds(0) (-want +got):\n%s", diff)
	}
}

func TestDetectMode(t *testing.T) {
	system := []domain.MetricBatch{batch(0, map[int]domain.MetricSample{1: cpuSample(1)})}
	if got := DetectMode(system); got != ModeSystem {
		t.Errorf("DetectMode = %q, want system", got)
	}
	browser := append(system, batch(1, map[int]domain.MetricSample{
		2: {JSHeapSize: domain.Some(1024)},
	}))
	if got := DetectMode(browser); got != ModeBrowser {
		t.Errorf("DetectMode = %q, want browser", got)
	}
}

func TestDiscoverPIDs(t *testing.T) {
	batches := []domain.MetricBatch{
		batch(0, map[int]domain.MetricSample{9: {}, 3: {}}),
		batch(1, map[int]domain.MetricSample{3: {}, 5: {}}),
	}
	if diff := cmp.Diff([]int{3, 5, 9}, DiscoverPIDs(batches)); diff != "" {
		t.Errorf("DiscoverPIDs (-want +got):\n%s", diff)
	}
}

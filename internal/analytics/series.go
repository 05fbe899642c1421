// Package analytics turns the raw batches of monitoring reports into
// per-process summaries, aligned comparison series, delta rankings and
// tag-group comparisons. Every function is pure over its inputs.
package analytics

import (
	"slices"
	"time"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
	"nathanbeddoewebdev/perfsight/internal/stats"
)

// BytesPerMiB converts memory readings from bytes to MiB.
const BytesPerMiB = 1024 * 1024

// DefaultIntervalMs is used when a report does not carry its sampling interval.
const DefaultIntervalMs = 1000

// Field picks one numeric value out of a sample.
type Field func(domain.MetricSample) (float64, bool)

func firstPresent(readings ...domain.Reading) (float64, bool) {
	for _, r := range readings {
		if v, ok := r.Get(); ok {
			return v, true
		}
	}
	return 0, false
}

// CPUField returns the OS CPU%, falling back to the browser-aligned value and
// then to the legacy primary value.
func CPUField(s domain.MetricSample) (float64, bool) {
	return firstPresent(s.CPUOSUsage, s.CPUChromeUsage, s.CPUUsage)
}

// MemoryField returns memory in bytes: private, then footprint, then RSS.
func MemoryField(s domain.MetricSample) (float64, bool) {
	return firstPresent(s.MemoryPrivate, s.MemoryFootprint, s.MemoryRSS)
}

// HeapField returns the JS heap size in bytes.
func HeapField(s domain.MetricSample) (float64, bool) {
	return s.JSHeapSize.Get()
}

// GPUField returns the GPU usage percentage.
func GPUField(s domain.MetricSample) (float64, bool) {
	return s.GPUUsage.Get()
}

// CustomField returns a picker for the named custom metric.
func CustomField(name string) Field {
	return func(s domain.MetricSample) (float64, bool) {
		r, ok := s.CustomMetrics[name]
		if !ok {
			return 0, false
		}
		return r.Get()
	}
}

// InMiB wraps a byte-valued field so it yields MiB.
func InMiB(f Field) Field {
	return func(s domain.MetricSample) (float64, bool) {
		v, ok := f(s)
		if !ok {
			return 0, false
		}
		return v / BytesPerMiB, true
	}
}

// MergeBatches collapses batches sharing a timestamp into one batch holding
// the union of their PIDs. Output order follows the first occurrence of each
// timestamp. When a PID appears twice for one timestamp the later sample
// wins. The input is not modified.
func MergeBatches(batches []domain.MetricBatch) []domain.MetricBatch {
	out := make([]domain.MetricBatch, 0, len(batches))
	index := make(map[string]int, len(batches))
	for _, b := range batches {
		i, seen := index[b.Timestamp]
		if !seen {
			index[b.Timestamp] = len(out)
			out = append(out, domain.MetricBatch{
				Timestamp: b.Timestamp,
				Metrics:   make(map[int]domain.MetricSample, len(b.Metrics)),
			})
			i = len(out) - 1
		}
		for pid, s := range b.Metrics {
			out[i].Metrics[pid] = s
		}
	}
	return out
}

// Extract returns the present values of field across all batches for the
// PIDs in include. A nil include admits every PID; an empty non-nil set
// admits none. Values are ordered by batch, then by ascending PID.
func Extract(batches []domain.MetricBatch, include PIDSet, field Field) []float64 {
	var out []float64
	for _, b := range MergeBatches(batches) {
		for _, pid := range sortedPIDs(b.Metrics) {
			if include != nil && !include.Has(pid) {
				continue
			}
			if v, ok := field(b.Metrics[pid]); ok {
				out = append(out, v)
			}
		}
	}
	return out
}

// ExtractByPID returns one series per PID with the elapsed seconds of each
// value. Elapsed time comes from the batch timestamps; when those cannot be
// parsed, batch index times intervalMs is used instead.
func ExtractByPID(batches []domain.MetricBatch, include PIDSet, field Field, intervalMs int64) map[int]stats.Series {
	merged := MergeBatches(batches)
	elapsed := ElapsedSeconds(merged, intervalMs)
	out := make(map[int]stats.Series)
	for i, b := range merged {
		for pid, s := range b.Metrics {
			if include != nil && !include.Has(pid) {
				continue
			}
			v, ok := field(s)
			if !ok {
				continue
			}
			series := out[pid]
			series.Append(v, elapsed[i])
			out[pid] = series
		}
	}
	return out
}

// ElapsedSeconds returns the offset of each batch from the first one.
// Timestamps must all parse as RFC 3339 and never go backwards; otherwise
// the offsets are synthesized from intervalMs.
func ElapsedSeconds(batches []domain.MetricBatch, intervalMs int64) []float64 {
	out := make([]float64, len(batches))
	if len(batches) == 0 {
		return out
	}
	if parsed, ok := parseTimestamps(batches); ok {
		for i, ts := range parsed {
			out[i] = ts.Sub(parsed[0]).Seconds()
		}
		return out
	}
	if intervalMs <= 0 {
		intervalMs = DefaultIntervalMs
	}
	for i := range out {
		out[i] = float64(int64(i)*intervalMs) / 1000
	}
	return out
}

func parseTimestamps(batches []domain.MetricBatch) ([]time.Time, bool) {
	parsed := make([]time.Time, len(batches))
	for i, b := range batches {
		ts, err := time.Parse(time.RFC3339Nano, b.Timestamp)
		if err != nil {
			return nil, false
		}
		if i > 0 && ts.Before(parsed[i-1]) {
			return nil, false
		}
		parsed[i] = ts
	}
	return parsed, true
}

// Mode is the kind of monitoring run that produced a report.
type Mode string

const (
	ModeSystem  Mode = "system"
	ModeBrowser Mode = "browser"
)

// DetectMode reports browser mode when any sample carries a JS heap size.
func DetectMode(batches []domain.MetricBatch) Mode {
	for _, b := range batches {
		for _, s := range b.Metrics {
			if _, ok := s.JSHeapSize.Get(); ok {
				return ModeBrowser
			}
		}
	}
	return ModeSystem
}

// DiscoverPIDs returns every PID seen in any batch, ascending.
func DiscoverPIDs(batches []domain.MetricBatch) []int {
	set := make(PIDSet)
	for _, b := range batches {
		for pid := range b.Metrics {
			set.Add(pid)
		}
	}
	return set.Sorted()
}

func sortedPIDs(m map[int]domain.MetricSample) []int {
	pids := make([]int, 0, len(m))
	for pid := range m {
		pids = append(pids, pid)
	}
	slices.Sort(pids)
	return pids
}

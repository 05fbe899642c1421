package analytics

import (
	"cmp"
	"fmt"
	"slices"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
	"nathanbeddoewebdev/perfsight/internal/stats"
)

// ProcessDescriptor is a PID with its display label.
type ProcessDescriptor struct {
	PID      int    `json:"pid"`
	Label    string `json:"label"`
	ProcType string `json:"proc_type,omitempty"`
}

// Describe resolves the label of pid from the report metadata using the
// order alias, title, name, then "Process {pid}".
func Describe(r *domain.Report, pid int) ProcessDescriptor {
	d := ProcessDescriptor{PID: pid}
	var alias, title, name string
	if r != nil && r.Meta != nil {
		for _, a := range r.Meta.ProcessAliases {
			if a.PID == pid && a.Alias != "" {
				alias = a.Alias
			}
		}
		for _, p := range r.Meta.ProcessSnapshot {
			if p.PID != pid {
				continue
			}
			if p.Alias != "" {
				alias = p.Alias
			}
			title, name = p.Title, p.Name
			d.ProcType = p.ProcType
			break
		}
	}
	switch {
	case alias != "":
		d.Label = alias
	case title != "":
		d.Label = title
	case name != "":
		d.Label = name
	default:
		d.Label = fmt.Sprintf("Process %d", pid)
	}
	return d
}

// ProcessRow is the per-process summary of one report.
type ProcessRow struct {
	ProcessDescriptor
	CPU         stats.Summary `json:"cpu"`
	MemoryMiB   stats.Summary `json:"memory_mib"`
	GPUMean     *float64      `json:"gpu_mean,omitempty"`
	HeapMeanMiB *float64      `json:"heap_mean_mib,omitempty"`
}

// SummarizeProcesses returns one row per PID that has at least one CPU or
// memory reading. Rows are sorted by mean CPU descending, then PID
// ascending; rows without CPU data sort last.
func SummarizeProcesses(r *domain.Report) []ProcessRow {
	if r == nil {
		return nil
	}
	interval := r.IntervalMs()
	cpu := ExtractByPID(r.Metrics, nil, CPUField, interval)
	mem := ExtractByPID(r.Metrics, nil, InMiB(MemoryField), interval)
	gpu := ExtractByPID(r.Metrics, nil, GPUField, interval)
	heap := ExtractByPID(r.Metrics, nil, InMiB(HeapField), interval)

	var rows []ProcessRow
	for _, pid := range DiscoverPIDs(r.Metrics) {
		cs, hasCPU := cpu[pid]
		ms, hasMem := mem[pid]
		if !hasCPU && !hasMem {
			continue
		}
		rows = append(rows, ProcessRow{
			ProcessDescriptor: Describe(r, pid),
			CPU:               stats.Summarize(cs, stats.CPUThresholds),
			MemoryMiB:         stats.Summarize(ms, stats.MemoryThresholdsMiB),
			GPUMean:           stats.Opt(stats.Mean(gpu[pid].Values)),
			HeapMeanMiB:       stats.Opt(stats.Mean(heap[pid].Values)),
		})
	}

	slices.SortStableFunc(rows, func(a, b ProcessRow) int {
		if c := compareNullableDesc(a.CPU.Mean, b.CPU.Mean); c != 0 {
			return c
		}
		return cmp.Compare(a.PID, b.PID)
	})
	return rows
}

// compareNullableDesc orders larger values first and nil after any value.
func compareNullableDesc(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*b, *a)
}

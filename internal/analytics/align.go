package analytics

import (
	"fmt"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// AlignedRow is one synthetic time point of a comparison. A nil cell means
// no data: the report had no sample at that index, nothing was selected, or
// no selected process reported a value.
type AlignedRow struct {
	TimeS     float64            `json:"time_s"`
	CPU       map[int64]*float64 `json:"cpu"`
	MemoryMiB map[int64]*float64 `json:"memory_mib"`
}

// Alignment is the result of placing several reports on one sample axis.
type Alignment struct {
	BaselineID *int64       `json:"baseline_id,omitempty"`
	IntervalMs int64        `json:"interval_ms"`
	ReportIDs  []int64      `json:"report_ids"`
	Rows       []AlignedRow `json:"rows"`
}

// Series returns the column of one report for rendering. Cells are nil where
// the aligned value is null.
func (a Alignment) Series(reportID int64, kind Kind) []*float64 {
	out := make([]*float64, len(a.Rows))
	for i, row := range a.Rows {
		switch kind {
		case KindCPU:
			out[i] = row.CPU[reportID]
		case KindMemory:
			out[i] = row.MemoryMiB[reportID]
		}
	}
	return out
}

// Align places reports on a shared sample-index axis. The interval of the
// baseline (or of the first report, or 1000 ms) defines time_s; the row
// count is the longest merged batch sequence. Each cell is the sum of the
// report's selected PIDs for that kind. Shorter reports are never
// extrapolated.
func Align(reports []*domain.Report, sel Selections, baselineID *int64) (Alignment, error) {
	if len(reports) < 2 {
		return Alignment{}, fmt.Errorf("analytics: align %d report(s): %w", len(reports), ErrTooFewReports)
	}

	var baseline *domain.Report
	if baselineID != nil {
		baseline = findReport(reports, *baselineID)
		if baseline == nil {
			return Alignment{}, fmt.Errorf("analytics: baseline %d: %w", *baselineID, ErrUnknownReport)
		}
	}

	var interval int64 = DefaultIntervalMs
	if ms := baseline.IntervalMs(); ms > 0 {
		interval = ms
	} else if ms := reports[0].IntervalMs(); ms > 0 {
		interval = ms
	}

	merged := make([][]domain.MetricBatch, len(reports))
	cpuSel := make([][]int, len(reports))
	memSel := make([][]int, len(reports))
	rowCount := 0
	ids := make([]int64, len(reports))
	for i, r := range reports {
		ids[i] = r.ID
		merged[i] = MergeBatches(r.Metrics)
		cpuSel[i] = sel.resolve(r, KindCPU).Sorted()
		memSel[i] = sel.resolve(r, KindMemory).Sorted()
		rowCount = max(rowCount, len(merged[i]))
	}

	rows := make([]AlignedRow, rowCount)
	for row := range rows {
		rows[row] = AlignedRow{
			TimeS:     float64(int64(row)*interval) / 1000,
			CPU:       make(map[int64]*float64, len(reports)),
			MemoryMiB: make(map[int64]*float64, len(reports)),
		}
		for i, r := range reports {
			if row >= len(merged[i]) {
				rows[row].CPU[r.ID] = nil
				rows[row].MemoryMiB[r.ID] = nil
				continue
			}
			batch := merged[i][row]
			rows[row].CPU[r.ID] = sumSelected(batch, cpuSel[i], CPUField)
			rows[row].MemoryMiB[r.ID] = sumSelected(batch, memSel[i], InMiB(MemoryField))
		}
	}

	return Alignment{
		BaselineID: baselineID,
		IntervalMs: interval,
		ReportIDs:  ids,
		Rows:       rows,
	}, nil
}

// sumSelected returns nil unless at least one selected PID has a value.
func sumSelected(b domain.MetricBatch, pids []int, field Field) *float64 {
	if len(pids) == 0 {
		return nil
	}
	var total float64
	found := false
	for _, pid := range pids {
		s, ok := b.Metrics[pid]
		if !ok {
			continue
		}
		if v, ok := field(s); ok {
			total += v
			found = true
		}
	}
	if !found {
		return nil
	}
	return &total
}

func findReport(reports []*domain.Report, id int64) *domain.Report {
	for _, r := range reports {
		if r.ID == id {
			return r
		}
	}
	return nil
}

package comparison

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nathanbeddoewebdev/perfsight/internal/analytics"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

type savedConfig struct {
	ID       int64
	Baseline *int64
	CPU      map[int64][]int
	Mem      map[int64][]int
}

// fakeBackend is an in-memory backend.Backend.
type fakeBackend struct {
	mu          sync.Mutex
	reports     map[int64]*domain.Report
	comparisons map[int64]*domain.ComparisonConfig
	saves       []savedConfig
	saveErr     error

	comparisonCalls int
	// beforeComparison runs outside the lock on every GetComparisonDetail
	// call with its 1-based call number.
	beforeComparison func(call int)
}

func newFakeBackend(reports ...*domain.Report) *fakeBackend {
	f := &fakeBackend{
		reports:     make(map[int64]*domain.Report),
		comparisons: make(map[int64]*domain.ComparisonConfig),
	}
	for _, r := range reports {
		f.reports[r.ID] = r
	}
	return f
}

func (f *fakeBackend) GetReportDetail(_ context.Context, id int64) (*domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return nil, fmt.Errorf("fake: report %d: %w", id, domain.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (f *fakeBackend) GetReports(context.Context) ([]domain.ReportSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ReportSummary
	for id := int64(1); id <= int64(len(f.reports)); id++ {
		if r, ok := f.reports[id]; ok {
			out = append(out, domain.ReportSummary{ID: r.ID, Title: r.Title, Tags: r.Tags})
		}
	}
	return out, nil
}

func (f *fakeBackend) GetKnownTags(context.Context) ([]domain.TagStat, error) {
	return nil, nil
}

func (f *fakeBackend) GetComparisonDetail(_ context.Context, id int64) (*domain.ComparisonConfig, error) {
	f.mu.Lock()
	f.comparisonCalls++
	call := f.comparisonCalls
	hook := f.beforeComparison
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comparisons[id]
	if !ok {
		return nil, fmt.Errorf("fake: comparison %d: %w", id, domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeBackend) UpdateComparisonConfig(_ context.Context, id int64, baselineID *int64, cpu, mem map[int64][]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves = append(f.saves, savedConfig{ID: id, Baseline: baselineID, CPU: cpu, Mem: mem})
	if c, ok := f.comparisons[id]; ok {
		c.BaselineReportID = baselineID
		c.CPUSelections = cpu
		c.MemSelections = mem
	}
	return nil
}

func (f *fakeBackend) UpdateComparisonReports(_ context.Context, id int64, reportIDs []int64, baseline *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comparisons[id]
	if !ok {
		return fmt.Errorf("fake: comparison %d: %w", id, domain.ErrNotFound)
	}
	c.ReportIDs = reportIDs
	c.BaselineReportID = baseline
	return nil
}

func (f *fakeBackend) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeBackend) lastSave() savedConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves[len(f.saves)-1]
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// testReport builds a report with a main process (PID 10) following cpu and
// a helper process (PID 20) steady at 1% CPU and 100 MiB.
func testReport(id int64, tags []string, cpu ...float64) *domain.Report {
	r := &domain.Report{
		ID:    id,
		Title: fmt.Sprintf("run %d", id),
		Tags:  tags,
		Meta:  &domain.Metadata{Collection: &domain.Collection{IntervalMs: 1000}},
	}
	for i, v := range cpu {
		r.Metrics = append(r.Metrics, domain.MetricBatch{
			Timestamp: t0.Add(time.Duration(i) * time.Second).Format(time.RFC3339Nano),
			Metrics: map[int]domain.MetricSample{
				10: {CPUOSUsage: domain.Some(v), MemoryPrivate: domain.Some(200 * analytics.BytesPerMiB)},
				20: {CPUOSUsage: domain.Some(1), MemoryPrivate: domain.Some(100 * analytics.BytesPerMiB)},
			},
		})
	}
	return r
}

package comparison

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-orz/cache"
	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/analytics"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// ErrStale is returned when a response arrived after a newer request for
// the same operation and was discarded.
var ErrStale = errors.New("comparison: response superseded by a newer request")

const memoTTL = 10 * time.Minute

// Operation names used with the session's Sequencer.
const (
	OpReload  = "reload"
	OpReports = "reports"
)

// SessionOption configures a Session.
type SessionOption func(*Session)

// OnSaveError registers a callback for failed autosaves. Local state is
// kept as is when a save fails.
func OnSaveError(fn func(error)) SessionOption {
	return func(s *Session) { s.onSaveError = fn }
}

// Session is the editable state of one open comparison. It is safe for
// concurrent use.
type Session struct {
	svc         *Service
	id          int64
	seq         Sequencer
	saver       *Autosaver
	onSaveError func(error)

	mu       sync.RWMutex
	config   *domain.ComparisonConfig
	reports  []*domain.Report
	sel      analytics.Selections
	baseline *int64
	version  uint64

	alignMemo  cache.Cache[string, analytics.Alignment]
	driverMemo cache.Cache[string, []analytics.DriverReport]
}

func newSession(svc *Service, id int64, loaded *Loaded, opts ...SessionOption) *Session {
	s := &Session{
		svc:        svc,
		id:         id,
		alignMemo:  cache.New[string, analytics.Alignment](time.Minute),
		driverMemo: cache.New[string, []analytics.DriverReport](time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.apply(loaded)
	s.saver = NewAutosaver(svc.autosaveDelay, s.save, s.onSaveError, svc.log.With(zap.Int64("comparison_id", id)), svc.metrics)
	return s
}

// apply replaces the session state with a freshly loaded comparison.
func (s *Session) apply(loaded *Loaded) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = loaded.Config
	s.reports = loaded.Reports
	s.sel = analytics.SelectionsFromConfig(loaded.Reports, loaded.Config.CPUSelections, loaded.Config.MemSelections)
	s.baseline = loaded.Config.BaselineReportID
	s.version++
}

// ID returns the comparison id.
func (s *Session) ID() int64 { return s.id }

// Title returns the comparison title.
func (s *Session) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Title
}

// Reports returns the loaded reports in comparison order.
func (s *Session) Reports() []*domain.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.reports)
}

// Selections returns a copy of the current selections.
func (s *Session) Selections() analytics.Selections {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sel.Clone()
}

// Baseline returns the baseline report id, or nil when none is chosen.
func (s *Session) Baseline() *int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.baseline == nil {
		return nil
	}
	id := *s.baseline
	return &id
}

// Version increases with every state change.
func (s *Session) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Reload fetches the comparison again and replaces the local state. When a
// later Reload was started before this one finished, the result is dropped
// and ErrStale is returned.
func (s *Session) Reload(ctx context.Context) error {
	token := s.seq.Next(OpReload)
	loaded, err := s.svc.Load(ctx, s.id)
	if !s.seq.IsLatest(token) {
		s.dropStale(OpReload, token)
		return ErrStale
	}
	if err != nil {
		return err
	}
	s.apply(loaded)
	return nil
}

// SetReports changes the report set on the backend, then reloads. Any
// unsaved selection change is flushed first so it is not lost.
func (s *Session) SetReports(ctx context.Context, reportIDs []int64, baseline *int64) error {
	token := s.seq.Next(OpReports)
	if err := s.saver.Flush(ctx); err != nil {
		return err
	}
	if err := s.svc.backend.UpdateComparisonReports(ctx, s.id, reportIDs, baseline); err != nil {
		return fmt.Errorf("comparison: update reports: %w", err)
	}
	loaded, err := s.svc.Load(ctx, s.id)
	if !s.seq.IsLatest(token) {
		s.dropStale(OpReports, token)
		return ErrStale
	}
	if err != nil {
		return err
	}
	s.apply(loaded)
	return nil
}

func (s *Session) dropStale(op string, t Token) {
	s.svc.metrics.StaleDropped(op)
	s.svc.log.Info("stale response dropped",
		zap.Int64("comparison_id", s.id),
		zap.String("op", op),
		zap.Uint64("seq", t.Seq),
	)
}

// SetSelection replaces the selected PIDs of one report and kind.
func (s *Session) SetSelection(reportID int64, kind analytics.Kind, pids []int) error {
	return s.mutate(reportID, func() {
		s.sel = s.sel.With(reportID, kind, analytics.NewPIDSet(pids...))
	})
}

// Toggle flips one PID in the selection of a report and kind.
func (s *Session) Toggle(reportID int64, kind analytics.Kind, pid int) error {
	return s.mutate(reportID, func() {
		s.sel = s.sel.Toggle(reportID, kind, pid)
	})
}

// SetBaseline selects the baseline report. A nil id clears it.
func (s *Session) SetBaseline(id *int64) error {
	if id == nil {
		s.mu.Lock()
		s.baseline = nil
		s.version++
		s.mu.Unlock()
		s.saver.Schedule()
		return nil
	}
	baseline := *id
	return s.mutate(baseline, func() {
		s.baseline = &baseline
	})
}

func (s *Session) mutate(reportID int64, change func()) error {
	s.mu.Lock()
	if !s.hasReport(reportID) {
		s.mu.Unlock()
		return fmt.Errorf("comparison: report %d is not part of comparison %d: %w", reportID, s.id, analytics.ErrUnknownReport)
	}
	change()
	s.version++
	s.mu.Unlock()

	s.saver.Schedule()
	return nil
}

func (s *Session) hasReport(id int64) bool {
	for _, r := range s.reports {
		if r.ID == id {
			return true
		}
	}
	return false
}

// snapshot returns the inputs of the derived views and their memo key.
func (s *Session) snapshot() (key string, reports []*domain.Report, sel analytics.Selections, baseline *int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key = fmt.Sprintf("%d:none", s.version)
	if s.baseline != nil {
		key = fmt.Sprintf("%d:%d", s.version, *s.baseline)
	}
	return key, s.reports, s.sel, s.baseline
}

// Alignment returns the aligned CPU and memory series for the current
// state. Results are reused until the state changes.
func (s *Session) Alignment() (analytics.Alignment, error) {
	key, reports, sel, baseline := s.snapshot()
	if a, ok := s.alignMemo.Get(key); ok {
		return a, nil
	}
	a, err := analytics.Align(reports, sel, baseline)
	if err != nil {
		return analytics.Alignment{}, err
	}
	s.alignMemo.Set(key, a, memoTTL)
	return a, nil
}

// Drivers ranks the per-process deltas of every report against the
// baseline, or against the first report when no baseline is chosen.
func (s *Session) Drivers() ([]analytics.DriverReport, error) {
	key, reports, sel, baseline := s.snapshot()
	if d, ok := s.driverMemo.Get(key); ok {
		return d, nil
	}
	d, err := drivers(reports, sel, baseline)
	if err != nil {
		return nil, err
	}
	s.driverMemo.Set(key, d, memoTTL)
	return d, nil
}

func (s *Session) save(ctx context.Context) error {
	s.mu.RLock()
	baseline := s.baseline
	cpu, mem := s.sel.ToConfig()
	s.mu.RUnlock()

	if err := s.svc.backend.UpdateComparisonConfig(ctx, s.id, baseline, cpu, mem); err != nil {
		return fmt.Errorf("comparison: save %d: %w", s.id, err)
	}
	return nil
}

// Pending reports whether unsaved changes are waiting for the autosave.
func (s *Session) Pending() bool { return s.saver.Pending() }

// Flush saves pending changes immediately.
func (s *Session) Flush(ctx context.Context) error {
	return s.saver.Flush(ctx)
}

// Close flushes pending changes and stops the autosave timer.
func (s *Session) Close(ctx context.Context) error {
	err := s.saver.Flush(ctx)
	s.saver.Stop()
	return err
}

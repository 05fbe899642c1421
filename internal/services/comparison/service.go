// Package comparison loads saved comparisons and keeps an editable session
// over them: selection and baseline changes, memoized alignment and driver
// rankings, and a debounced save back to the backend.
package comparison

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nathanbeddoewebdev/perfsight/internal/analytics"
	"nathanbeddoewebdev/perfsight/internal/backend"
	"nathanbeddoewebdev/perfsight/internal/metrics"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// DefaultAutosaveDelay is used when no delay is configured.
const DefaultAutosaveDelay = 600 * time.Millisecond

// Service reads comparisons and their reports through a Backend.
type Service struct {
	backend       backend.Backend
	log           *zap.Logger
	metrics       *metrics.Recorder
	autosaveDelay time.Duration
	validate      *validator.Validate
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithMetrics sets the recorder for load and autosave metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAutosaveDelay sets the debounce delay of sessions opened by the
// service. Non-positive values select DefaultAutosaveDelay.
func WithAutosaveDelay(d time.Duration) Option {
	return func(s *Service) { s.autosaveDelay = d }
}

// NewService creates a comparison service over b.
func NewService(b backend.Backend, opts ...Option) *Service {
	s := &Service{
		backend:  b,
		log:      zap.NewNop(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.autosaveDelay <= 0 {
		s.autosaveDelay = DefaultAutosaveDelay
	}
	return s
}

// Loaded is a comparison together with every report it references, in the
// comparison's order.
type Loaded struct {
	Config  *domain.ComparisonConfig
	Reports []*domain.Report
}

// Selections restores the saved selections of the comparison.
func (l *Loaded) Selections() analytics.Selections {
	return analytics.SelectionsFromConfig(l.Reports, l.Config.CPUSelections, l.Config.MemSelections)
}

// Alignment aligns the reports with the saved selections and baseline.
func (l *Loaded) Alignment() (analytics.Alignment, error) {
	return analytics.Align(l.Reports, l.Selections(), l.Config.BaselineReportID)
}

// Drivers ranks the per-process deltas with the saved selections and
// baseline.
func (l *Loaded) Drivers() ([]analytics.DriverReport, error) {
	return drivers(l.Reports, l.Selections(), l.Config.BaselineReportID)
}

// drivers compares every report against the baseline, or against the first
// report when no baseline is chosen.
func drivers(reports []*domain.Report, sel analytics.Selections, baseline *int64) ([]analytics.DriverReport, error) {
	if len(reports) == 0 {
		return nil, fmt.Errorf("comparison: drivers: %w", analytics.ErrTooFewReports)
	}
	base := reports[0]
	if baseline != nil {
		base = nil
		for _, r := range reports {
			if r.ID == *baseline {
				base = r
				break
			}
		}
	}
	return analytics.AnalyzeDrivers(base, reports, sel)
}

// Load fetches the comparison and all of its reports. The reports are
// fetched concurrently; if any fetch fails the whole load fails.
func (s *Service) Load(ctx context.Context, id int64) (*Loaded, error) {
	start := time.Now()
	loaded, err := s.load(ctx, id)
	s.metrics.ObserveLoad(time.Since(start), err)
	if err != nil {
		s.log.Warn("comparison load failed", zap.Int64("comparison_id", id), zap.Error(err))
		return nil, err
	}
	s.log.Debug("comparison loaded",
		zap.Int64("comparison_id", id),
		zap.Int("reports", len(loaded.Reports)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return loaded, nil
}

func (s *Service) load(ctx context.Context, id int64) (*Loaded, error) {
	cfg, err := s.backend.GetComparisonDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("comparison: load %d: %w", id, err)
	}
	reports, err := s.LoadReports(ctx, cfg.ReportIDs)
	if err != nil {
		return nil, fmt.Errorf("comparison: load %d: %w", id, err)
	}
	return &Loaded{Config: cfg, Reports: reports}, nil
}

// LoadReports fetches reports concurrently, preserving the order of ids.
// Reports returned without an analysis get one computed locally.
func (s *Service) LoadReports(ctx context.Context, ids []int64) ([]*domain.Report, error) {
	reports := make([]*domain.Report, len(ids))
	g, gctx := errgroup.WithContext(ctx)

	for i, id := range ids {
		g.Go(func() error {
			r, err := s.backend.GetReportDetail(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to fetch report %d: %w", id, err)
			}
			if r.Analysis == nil {
				r.Analysis = analytics.Analyze(r)
			}
			reports[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Open loads a comparison and starts an editing session over it.
func (s *Service) Open(ctx context.Context, id int64, opts ...SessionOption) (*Session, error) {
	loaded, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return newSession(s, id, loaded, opts...), nil
}

type groupRequest struct {
	Groups []domain.GroupDef `validate:"required,min=1,dive"`
}

// CompareGroups runs a tag group comparison over the given reports. A nil
// reportIDs pools every stored report.
func (s *Service) CompareGroups(ctx context.Context, reportIDs []int64, defs []domain.GroupDef, baselineKey string) (analytics.GroupComparison, error) {
	if err := s.ValidateGroups(defs); err != nil {
		return analytics.GroupComparison{}, err
	}

	if reportIDs == nil {
		summaries, err := s.backend.GetReports(ctx)
		if err != nil {
			return analytics.GroupComparison{}, fmt.Errorf("comparison: list reports: %w", err)
		}
		reportIDs = make([]int64, 0, len(summaries))
		for _, r := range summaries {
			reportIDs = append(reportIDs, r.ID)
		}
	}

	pool, err := s.LoadReports(ctx, reportIDs)
	if err != nil {
		return analytics.GroupComparison{}, fmt.Errorf("comparison: groups: %w", err)
	}
	return analytics.CompareGroups(pool, defs, baselineKey)
}

// ValidateGroups checks group definitions before any report is fetched.
func (s *Service) ValidateGroups(defs []domain.GroupDef) error {
	if err := s.validate.Struct(groupRequest{Groups: defs}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("comparison: invalid groups: %s: %w", verrs[0].Namespace(), domain.ErrInvalidInput)
		}
		return fmt.Errorf("comparison: invalid groups: %w", err)
	}
	return nil
}

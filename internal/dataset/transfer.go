package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/backend"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// Transfer exports and imports datasets between a filesystem and a backend.
type Transfer struct {
	fs      afero.Fs
	backend backend.Manager
	log     *zap.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures a Transfer.
type Option func(*Transfer)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(t *Transfer) { t.log = log }
}

// WithClock overrides the export timestamp source. Intended for testing.
func WithClock(now func() time.Time) Option {
	return func(t *Transfer) { t.now = now }
}

// WithBundleIDs overrides bundle id generation. Intended for testing.
func WithBundleIDs(newID func() string) Option {
	return func(t *Transfer) { t.newID = newID }
}

// NewTransfer creates a Transfer over fs and b.
func NewTransfer(fs afero.Fs, b backend.Manager, opts ...Option) *Transfer {
	t := &Transfer{
		fs:      fs,
		backend: b,
		log:     zap.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ImportResult describes an imported comparison bundle.
type ImportResult struct {
	ComparisonID int64           `json:"comparison_id"`
	ImportedIDs  []int64         `json:"imported_ids"`
	IDMapping    map[int64]int64 `json:"id_mapping"`
	BaselineID   *int64          `json:"baseline_id,omitempty"`
}

// ExportReport writes report id as a dataset. An empty path writes a
// generated file name into dir. The written path is returned.
func (t *Transfer) ExportReport(ctx context.Context, id int64, dir, path string) (string, error) {
	r, err := t.backend.GetReportDetail(ctx, id)
	if err != nil {
		return "", fmt.Errorf("dataset: export report %d: %w", id, err)
	}
	if path == "" {
		path = filepath.Join(dir, Filename("report", id, r.Title, r.CreatedAt))
	}
	ds := ReportDataset{
		SchemaVersion: SchemaVersion,
		ExportedAt:    t.timestamp(),
		Report:        r,
	}
	if err := t.write(path, ds); err != nil {
		return "", err
	}
	t.log.Info("report exported", zap.Int64("report_id", id), zap.String("path", path))
	return path, nil
}

// ExportComparison writes comparison id and all of its reports as a
// bundle. An empty path writes a generated file name into dir.
func (t *Transfer) ExportComparison(ctx context.Context, id int64, dir, path string) (string, error) {
	cfg, err := t.backend.GetComparisonDetail(ctx, id)
	if err != nil {
		return "", fmt.Errorf("dataset: export comparison %d: %w", id, err)
	}

	reports := make([]*domain.Report, 0, len(cfg.ReportIDs))
	for _, rid := range cfg.ReportIDs {
		r, err := t.backend.GetReportDetail(ctx, rid)
		if err != nil {
			return "", fmt.Errorf("dataset: export comparison %d: %w", id, err)
		}
		reports = append(reports, r)
	}

	if path == "" {
		path = filepath.Join(dir, Filename("comparison", id, cfg.Title, cfg.CreatedAt))
	}
	b := ComparisonBundle{
		SchemaVersion: SchemaVersion,
		BundleType:    BundleTypeComparison,
		BundleID:      t.newID(),
		ExportedAt:    t.timestamp(),
		Reports:       reports,
		ComparisonContext: ComparisonContext{
			Title:              cfg.Title,
			BaselineOriginalID: cfg.BaselineReportID,
			CPUSelectionsByID:  cfg.CPUSelections,
			MemSelectionsByID:  cfg.MemSelections,
		},
	}
	if err := t.write(path, b); err != nil {
		return "", err
	}
	t.log.Info("comparison exported", zap.Int64("comparison_id", id), zap.String("bundle_id", b.BundleID), zap.String("path", path))
	return path, nil
}

// ImportReport stores the report of a dataset file and returns its new id.
func (t *Transfer) ImportReport(ctx context.Context, path string) (int64, error) {
	data, err := afero.ReadFile(t.fs, path)
	if err != nil {
		return 0, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	ds, err := DecodeReportDataset(data)
	if err != nil {
		return 0, err
	}
	id, err := t.backend.SaveReport(ctx, prepare(ds.Report))
	if err != nil {
		return 0, fmt.Errorf("dataset: import report: %w", err)
	}
	t.log.Info("report imported", zap.Int64("report_id", id), zap.String("path", path))
	return id, nil
}

// ImportComparison stores every report of a bundle file and creates the
// comparison over them with remapped baseline and selections. When any
// write fails the reports imported so far are removed again.
func (t *Transfer) ImportComparison(ctx context.Context, path string) (*ImportResult, error) {
	data, err := afero.ReadFile(t.fs, path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	b, err := DecodeComparisonBundle(data)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{IDMapping: make(map[int64]int64, len(b.Reports))}
	for _, r := range b.Reports {
		oldID := r.ID
		newID, err := t.backend.SaveReport(ctx, prepare(r))
		if err != nil {
			t.rollback(ctx, res.ImportedIDs)
			return nil, fmt.Errorf("dataset: import report %d: %w", oldID, err)
		}
		res.IDMapping[oldID] = newID
		res.ImportedIDs = append(res.ImportedIDs, newID)
	}

	bc := b.ComparisonContext
	if bc.BaselineOriginalID != nil {
		if id, ok := res.IDMapping[*bc.BaselineOriginalID]; ok {
			res.BaselineID = &id
		}
	}
	cfg := &domain.ComparisonConfig{
		Title:            bc.Title,
		ReportIDs:        slices.Clone(res.ImportedIDs),
		BaselineReportID: res.BaselineID,
		CPUSelections:    remap(bc.CPUSelectionsByID, res.IDMapping),
		MemSelections:    remap(bc.MemSelectionsByID, res.IDMapping),
	}
	res.ComparisonID, err = t.backend.CreateComparison(ctx, cfg)
	if err != nil {
		t.rollback(ctx, res.ImportedIDs)
		return nil, fmt.Errorf("dataset: create comparison: %w", err)
	}

	t.log.Info("comparison imported",
		zap.Int64("comparison_id", res.ComparisonID),
		zap.String("bundle_id", b.BundleID),
		zap.Int64s("report_ids", res.ImportedIDs),
	)
	return res, nil
}

func (t *Transfer) rollback(ctx context.Context, ids []int64) {
	for _, id := range ids {
		if err := t.backend.DeleteReport(ctx, id); err != nil {
			t.log.Warn("rollback failed", zap.Int64("report_id", id), zap.Error(err))
		}
	}
}

func (t *Transfer) write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("dataset: encode: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := t.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("dataset: create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(t.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("dataset: write %s: %w", path, err)
	}
	return nil
}

func (t *Transfer) timestamp() string {
	return t.now().UTC().Format(time.RFC3339)
}

// prepare strips the exporting side's identity and derived analysis.
func prepare(r *domain.Report) *domain.Report {
	cp := *r
	cp.ID = 0
	cp.Analysis = nil
	return &cp
}

// remap rekeys selections to the new report ids, dropping unknown ids.
func remap(sel map[int64][]int, mapping map[int64]int64) map[int64][]int {
	out := make(map[int64][]int, len(sel))
	for oldID, pids := range sel {
		if newID, ok := mapping[oldID]; ok {
			out[newID] = pids
		}
	}
	return out
}

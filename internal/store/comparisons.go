package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// CreateComparison stores a new comparison over at least two existing reports.
func (s *SQLiteStore) CreateComparison(ctx context.Context, c *domain.ComparisonConfig) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("store: create comparison: %w", domain.ErrInvalidInput)
	}
	if err := validateMembers(c.ReportIDs, c.BaselineReportID); err != nil {
		return 0, err
	}
	for _, id := range c.ReportIDs {
		if err := s.reportExists(ctx, id); err != nil {
			return 0, err
		}
	}

	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = fmt.Sprintf("Comparison of %d reports", len(c.ReportIDs))
	}
	createdAt := c.CreatedAt
	if createdAt == "" {
		createdAt = s.timestamp()
	}

	cols, err := encodeComparison(c)
	if err != nil {
		return 0, err
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO comparisons (created_at, title, report_ids_json, baseline_report_id, cpu_selections, mem_selections, tags_json, folder_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		createdAt, title, cols.reportIDs, nullableID(c.BaselineReportID), cols.cpu, cols.mem, cols.tags, NormalizeFolder(c.FolderPath),
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert comparison failed: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: failed to get last insert ID: %w", err)
	}

	s.log.Info("comparison created", zap.Int64("comparison_id", id), zap.Int64s("report_ids", c.ReportIDs))
	return id, nil
}

// GetComparisonDetail returns a saved comparison.
func (s *SQLiteStore) GetComparisonDetail(ctx context.Context, id int64) (*domain.ComparisonConfig, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, title, report_ids_json, baseline_report_id, cpu_selections, mem_selections, tags_json, folder_path
		FROM comparisons WHERE id = ?`, id)

	var c domain.ComparisonConfig
	var reportIDs, cpu, mem, tags string
	var baseline sql.NullInt64
	err := row.Scan(&c.ID, &c.CreatedAt, &c.Title, &reportIDs, &baseline, &cpu, &mem, &tags, &c.FolderPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: comparison %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: query comparison failed: %w", err)
	}

	if baseline.Valid {
		c.BaselineReportID = &baseline.Int64
	}
	for _, col := range []struct {
		data string
		dst  any
	}{
		{reportIDs, &c.ReportIDs},
		{cpu, &c.CPUSelections},
		{mem, &c.MemSelections},
		{tags, &c.Tags},
	} {
		if err := unmarshalColumn(col.data, col.dst); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// ListComparisons lists every comparison, newest first.
func (s *SQLiteStore) ListComparisons(ctx context.Context) ([]domain.ComparisonSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, title, report_ids_json, baseline_report_id
		FROM comparisons ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: query comparisons failed: %w", err)
	}
	defer rows.Close()

	var out []domain.ComparisonSummary
	for rows.Next() {
		var c domain.ComparisonSummary
		var reportIDs string
		var baseline sql.NullInt64
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.Title, &reportIDs, &baseline); err != nil {
			return nil, fmt.Errorf("store: scan failed: %w", err)
		}
		if baseline.Valid {
			c.BaselineReportID = &baseline.Int64
		}
		if err := unmarshalColumn(reportIDs, &c.ReportIDs); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateComparisonConfig replaces the baseline and both selection maps.
func (s *SQLiteStore) UpdateComparisonConfig(ctx context.Context, id int64, baselineID *int64, cpuSelections, memSelections map[int64][]int) error {
	current, err := s.GetComparisonDetail(ctx, id)
	if err != nil {
		return err
	}
	if err := validateMembers(current.ReportIDs, baselineID); err != nil {
		return err
	}

	cols, err := encodeComparison(&domain.ComparisonConfig{
		ReportIDs:     current.ReportIDs,
		CPUSelections: cpuSelections,
		MemSelections: memSelections,
		Tags:          current.Tags,
	})
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE comparisons SET baseline_report_id = ?, cpu_selections = ?, mem_selections = ?
		WHERE id = ?`,
		nullableID(baselineID), cols.cpu, cols.mem, id,
	)
	if err != nil {
		return fmt.Errorf("store: update comparison config failed: %w", err)
	}
	return expectOne(result, fmt.Errorf("store: comparison %d: %w", id, domain.ErrNotFound))
}

// UpdateComparisonReports replaces the report set. Selections of reports
// that left the set are dropped.
func (s *SQLiteStore) UpdateComparisonReports(ctx context.Context, id int64, reportIDs []int64, baselineReportID *int64) error {
	current, err := s.GetComparisonDetail(ctx, id)
	if err != nil {
		return err
	}
	if err := validateMembers(reportIDs, baselineReportID); err != nil {
		return err
	}
	for _, rid := range reportIDs {
		if err := s.reportExists(ctx, rid); err != nil {
			return err
		}
	}

	cols, err := encodeComparison(&domain.ComparisonConfig{
		ReportIDs:     reportIDs,
		CPUSelections: keepReports(current.CPUSelections, reportIDs),
		MemSelections: keepReports(current.MemSelections, reportIDs),
		Tags:          current.Tags,
	})
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE comparisons SET report_ids_json = ?, baseline_report_id = ?, cpu_selections = ?, mem_selections = ?
		WHERE id = ?`,
		cols.reportIDs, nullableID(baselineReportID), cols.cpu, cols.mem, id,
	)
	if err != nil {
		return fmt.Errorf("store: update comparison reports failed: %w", err)
	}
	return expectOne(result, fmt.Errorf("store: comparison %d: %w", id, domain.ErrNotFound))
}

// DeleteComparison removes a comparison. Its reports are kept.
func (s *SQLiteStore) DeleteComparison(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM comparisons WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete comparison failed: %w", err)
	}
	return expectOne(result, fmt.Errorf("store: comparison %d: %w", id, domain.ErrNotFound))
}

func (s *SQLiteStore) reportExists(ctx context.Context, id int64) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM reports WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("store: report %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("store: query report failed: %w", err)
	}
	return nil
}

type comparisonColumns struct {
	reportIDs, cpu, mem, tags string
}

func encodeComparison(c *domain.ComparisonConfig) (comparisonColumns, error) {
	var cols comparisonColumns
	var err error
	if cols.reportIDs, err = marshalColumn(nonNil(c.ReportIDs)); err != nil {
		return cols, err
	}
	if cols.cpu, err = marshalColumn(nonNilMap(c.CPUSelections)); err != nil {
		return cols, err
	}
	if cols.mem, err = marshalColumn(nonNilMap(c.MemSelections)); err != nil {
		return cols, err
	}
	if cols.tags, err = marshalColumn(normalizeTags(c.Tags)); err != nil {
		return cols, err
	}
	return cols, nil
}

func validateMembers(reportIDs []int64, baselineID *int64) error {
	if len(reportIDs) < 2 {
		return fmt.Errorf("store: comparison needs at least two reports, got %d: %w", len(reportIDs), domain.ErrInvalidInput)
	}
	seen := make(map[int64]bool, len(reportIDs))
	for _, id := range reportIDs {
		if seen[id] {
			return fmt.Errorf("store: report %d listed twice: %w", id, domain.ErrInvalidInput)
		}
		seen[id] = true
	}
	if baselineID != nil && !slices.Contains(reportIDs, *baselineID) {
		return fmt.Errorf("store: baseline %d is not part of the comparison: %w", *baselineID, domain.ErrInvalidInput)
	}
	return nil
}

func keepReports(sel map[int64][]int, reportIDs []int64) map[int64][]int {
	out := make(map[int64][]int, len(sel))
	for id, pids := range sel {
		if slices.Contains(reportIDs, id) {
			out[id] = pids
		}
	}
	return out
}

func nonNilMap(m map[int64][]int) map[int64][]int {
	if m == nil {
		return map[int64][]int{}
	}
	return m
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

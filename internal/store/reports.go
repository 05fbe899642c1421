package store

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/analytics"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// SaveReport inserts r and returns its new id. The report's own id and any
// analysis it carries are ignored.
func (s *SQLiteStore) SaveReport(ctx context.Context, r *domain.Report) (int64, error) {
	if r == nil {
		return 0, fmt.Errorf("store: save report: %w", domain.ErrInvalidInput)
	}

	createdAt := r.CreatedAt
	if createdAt == "" {
		createdAt = s.timestamp()
	}
	tags, err := marshalColumn(normalizeTags(r.AllTags()))
	if err != nil {
		return 0, err
	}
	metrics, err := marshalColumn(nonNil(r.Metrics))
	if err != nil {
		return 0, err
	}
	meta := ""
	if r.Meta != nil {
		if meta, err = marshalColumn(storedMeta(r.Meta)); err != nil {
			return 0, err
		}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (created_at, title, tags_json, folder_path, duration_seconds, metrics_json, meta_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		createdAt, r.Title, tags, NormalizeFolder(r.FolderPath), durationSeconds(r), metrics, meta,
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert report failed: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: failed to get last insert ID: %w", err)
	}

	s.log.Info("report saved", zap.Int64("report_id", id), zap.Int("batches", len(r.Metrics)))
	return id, nil
}

// GetReportDetail returns the full report with a freshly computed analysis.
func (s *SQLiteStore) GetReportDetail(ctx context.Context, id int64) (*domain.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, title, tags_json, folder_path, metrics_json, meta_json
		FROM reports WHERE id = ?`, id)

	var r domain.Report
	var tags, metrics, meta string
	err := row.Scan(&r.ID, &r.CreatedAt, &r.Title, &tags, &r.FolderPath, &metrics, &meta)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: report %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: query report failed: %w", err)
	}

	if err := unmarshalColumn(tags, &r.Tags); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(metrics, &r.Metrics); err != nil {
		return nil, err
	}
	if meta != "" {
		r.Meta = &domain.Metadata{}
		if err := unmarshalColumn(meta, r.Meta); err != nil {
			return nil, err
		}
	}
	r.Analysis = analytics.Analyze(&r)
	return &r, nil
}

// GetReports lists every report, newest first.
func (s *SQLiteStore) GetReports(ctx context.Context) ([]domain.ReportSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, title, tags_json, duration_seconds, folder_path
		FROM reports ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: query reports failed: %w", err)
	}
	defer rows.Close()

	var out []domain.ReportSummary
	for rows.Next() {
		var r domain.ReportSummary
		var tags string
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Title, &tags, &r.DurationSeconds, &r.FolderPath); err != nil {
			return nil, fmt.Errorf("store: scan failed: %w", err)
		}
		if err := unmarshalColumn(tags, &r.Tags); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetKnownTags counts reports per tag, most used first. Tags differing only
// in case are counted together under the spelling of the oldest report.
func (s *SQLiteStore) GetKnownTags(ctx context.Context) ([]domain.TagStat, error) {
	reports, err := s.GetReports(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var out []domain.TagStat
	for _, r := range slices.Backward(reports) {
		for _, t := range r.Tags {
			key := strings.ToLower(t)
			i, ok := index[key]
			if !ok {
				i = len(out)
				index[key] = i
				out = append(out, domain.TagStat{Tag: t})
			}
			out[i].Count++
		}
	}
	if out == nil {
		out = []domain.TagStat{}
	}
	slices.SortFunc(out, func(a, b domain.TagStat) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Tag, b.Tag)
	})
	return out, nil
}

// DeleteReport removes a report.
func (s *SQLiteStore) DeleteReport(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete report failed: %w", err)
	}
	return expectOne(result, fmt.Errorf("store: report %d: %w", id, domain.ErrNotFound))
}

// DeleteReports removes every listed report and returns how many existed.
func (s *SQLiteStore) DeleteReports(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("store: no reports to delete: %w", domain.ErrInvalidInput)
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id IN (`+placeholders(len(ids))+`)`, idArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("store: delete reports failed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: rows affected: %w", err)
	}
	s.log.Info("reports deleted", zap.Int("requested", len(ids)), zap.Int64("deleted", n))
	return int(n), nil
}

// UpdateReportsFolder moves every listed report to folder and returns how
// many existed.
func (s *SQLiteStore) UpdateReportsFolder(ctx context.Context, ids []int64, folder string) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("store: no reports to move: %w", domain.ErrInvalidInput)
	}
	args := append([]any{NormalizeFolder(folder)}, idArgs(ids)...)
	result, err := s.db.ExecContext(ctx, `UPDATE reports SET folder_path = ? WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("store: move reports failed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: rows affected: %w", err)
	}
	return int(n), nil
}

// UpdateReportTags replaces the tags of a report.
func (s *SQLiteStore) UpdateReportTags(ctx context.Context, id int64, tags []string) error {
	encoded, err := marshalColumn(normalizeTags(tags))
	if err != nil {
		return err
	}
	return s.updateReport(ctx, id, "tags_json", encoded)
}

// UpdateReportTitle renames a report.
func (s *SQLiteStore) UpdateReportTitle(ctx context.Context, id int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("store: empty title: %w", domain.ErrInvalidInput)
	}
	return s.updateReport(ctx, id, "title", title)
}

// UpdateReportFolder moves a report to another folder. An empty folder is
// the root.
func (s *SQLiteStore) UpdateReportFolder(ctx context.Context, id int64, folder string) error {
	return s.updateReport(ctx, id, "folder_path", NormalizeFolder(folder))
}

func (s *SQLiteStore) updateReport(ctx context.Context, id int64, column, value string) error {
	// column is always one of the literals above.
	result, err := s.db.ExecContext(ctx, `UPDATE reports SET `+column+` = ? WHERE id = ?`, value, id)
	if err != nil {
		return fmt.Errorf("store: update report %s failed: %w", column, err)
	}
	return expectOne(result, fmt.Errorf("store: report %d: %w", id, domain.ErrNotFound))
}

// NormalizeFolder cleans a slash-separated folder path. The root is "".
func NormalizeFolder(folder string) string {
	folder = strings.TrimSpace(strings.ReplaceAll(folder, "\\", "/"))
	if folder == "" {
		return ""
	}
	cleaned := strings.Trim(path.Clean("/"+folder), "/")
	return cleaned
}

// normalizeTags trims tags and drops empties and case-insensitive duplicates,
// keeping the first spelling.
func normalizeTags(tags []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// storedMeta returns m without test-context tags. Those are merged into
// tags_json on save, which stays the only tag list of a stored report.
func storedMeta(m *domain.Metadata) *domain.Metadata {
	if m.TestContext == nil || len(m.TestContext.Tags) == 0 {
		return m
	}
	meta := *m
	tc := *m.TestContext
	tc.Tags = nil
	meta.TestContext = &tc
	return &meta
}

func durationSeconds(r *domain.Report) int64 {
	if r.Meta != nil && r.Meta.Collection != nil && r.Meta.Collection.DurationSeconds > 0 {
		return r.Meta.Collection.DurationSeconds
	}
	if len(r.Metrics) < 2 {
		return 0
	}
	first, err1 := time.Parse(time.RFC3339Nano, r.Metrics[0].Timestamp)
	last, err2 := time.Parse(time.RFC3339Nano, r.Metrics[len(r.Metrics)-1].Timestamp)
	if err1 != nil || err2 != nil || last.Before(first) {
		return 0
	}
	return int64(last.Sub(first).Seconds())
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

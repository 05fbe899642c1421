// Package backend defines the request/response contract between the
// analytics engine and report storage, and a registry of implementations.
package backend

import (
	"context"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// Backend is the read and update contract consumed by the comparison
// service. Every call may block on I/O.
type Backend interface {
	GetReportDetail(ctx context.Context, id int64) (*domain.Report, error)
	GetReports(ctx context.Context) ([]domain.ReportSummary, error)
	GetKnownTags(ctx context.Context) ([]domain.TagStat, error)
	GetComparisonDetail(ctx context.Context, id int64) (*domain.ComparisonConfig, error)
	UpdateComparisonConfig(ctx context.Context, id int64, baselineID *int64, cpuSelections, memSelections map[int64][]int) error
	UpdateComparisonReports(ctx context.Context, id int64, reportIDs []int64, baselineReportID *int64) error
}

// Manager adds the report, folder and comparison management operations used
// by the CLI and dataset import.
type Manager interface {
	Backend

	SaveReport(ctx context.Context, r *domain.Report) (int64, error)
	DeleteReport(ctx context.Context, id int64) error
	UpdateReportTags(ctx context.Context, id int64, tags []string) error
	UpdateReportTitle(ctx context.Context, id int64, title string) error
	UpdateReportFolder(ctx context.Context, id int64, folder string) error
	DeleteReports(ctx context.Context, ids []int64) (int, error)
	UpdateReportsFolder(ctx context.Context, ids []int64, folder string) (int, error)

	ListFolders(ctx context.Context) ([]domain.FolderInfo, error)
	CreateFolder(ctx context.Context, parent, name string) (string, error)
	GetFolderStats(ctx context.Context, path string) (*domain.FolderStats, error)
	RenameFolder(ctx context.Context, path, newName string) (string, error)
	DeleteFolder(ctx context.Context, path string, strategy domain.FolderDeleteStrategy) (domain.FolderDeleteResult, error)

	CreateComparison(ctx context.Context, c *domain.ComparisonConfig) (int64, error)
	ListComparisons(ctx context.Context) ([]domain.ComparisonSummary, error)
	DeleteComparison(ctx context.Context, id int64) error

	Close() error
}

package domain

// ComparisonConfig is a saved multi-report comparison.
type ComparisonConfig struct {
	ID               int64           `json:"id"`
	Title            string          `json:"title"`
	CreatedAt        string          `json:"created_at"`
	ReportIDs        []int64         `json:"report_ids"`
	BaselineReportID *int64          `json:"baseline_report_id,omitempty"`
	CPUSelections    map[int64][]int `json:"cpu_selections,omitempty"`
	MemSelections    map[int64][]int `json:"mem_selections,omitempty"`
	Tags             []string        `json:"tags,omitempty"`
	FolderPath       string          `json:"folder_path,omitempty"`
}

// ComparisonSummary is a comparison without its selection maps.
type ComparisonSummary struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	CreatedAt        string  `json:"created_at"`
	ReportIDs        []int64 `json:"report_ids"`
	BaselineReportID *int64  `json:"baseline_report_id,omitempty"`
}

// MatchMode selects how a group's tags are matched against a report.
type MatchMode string

const (
	// MatchAny requires at least one of the group's tags.
	MatchAny MatchMode = "any"
	// MatchAll requires every one of the group's tags.
	MatchAll MatchMode = "all"
)

// GroupDef is a named tag predicate used to partition reports into cohorts.
type GroupDef struct {
	Name string    `json:"name" yaml:"name" validate:"required"`
	Mode MatchMode `json:"mode" yaml:"mode" validate:"omitempty,oneof=any all"`
	Tags []string  `json:"tags" yaml:"tags"`
}

package domain

// MetricSample is one process's readings at a batch timestamp.
type MetricSample struct {
	// CPUUsage is the legacy primary CPU% kept for older datasets.
	CPUUsage Reading `json:"cpu_usage,omitzero"`
	// CPUOSUsage is the OS-reported CPU% for the process.
	CPUOSUsage Reading `json:"cpu_os_usage,omitzero"`
	// CPUChromeUsage is the browser task-manager aligned CPU%.
	CPUChromeUsage Reading `json:"cpu_chrome_usage,omitzero"`

	MemoryRSS       Reading `json:"memory_rss,omitzero"`
	MemoryPrivate   Reading `json:"memory_private,omitzero"`
	MemoryFootprint Reading `json:"memory_footprint,omitzero"`

	// JSHeapSize is only reported in browser monitoring mode.
	JSHeapSize Reading `json:"js_heap_size,omitzero"`
	GPUUsage   Reading `json:"gpu_usage,omitzero"`

	// CustomMetrics holds log-derived metrics keyed by arbitrary name.
	CustomMetrics map[string]Reading `json:"custom_metrics,omitempty"`
}

// MetricBatch is one timestamped snapshot of every monitored process.
type MetricBatch struct {
	Timestamp string               `json:"timestamp"`
	Metrics   map[int]MetricSample `json:"metrics"`
}

// Report is a complete monitoring run as returned by GetReportDetail.
type Report struct {
	ID         int64            `json:"id"`
	CreatedAt  string           `json:"created_at"`
	Title      string           `json:"title"`
	Tags       []string         `json:"tags,omitempty"`
	FolderPath string           `json:"folder_path,omitempty"`
	Metrics    []MetricBatch    `json:"metrics"`
	Analysis   *AnalysisSummary `json:"analysis,omitempty"`
	Meta       *Metadata        `json:"meta,omitempty"`
}

// IntervalMs returns the configured sampling interval, or 0 when unknown.
func (r *Report) IntervalMs() int64 {
	if r == nil || r.Meta == nil || r.Meta.Collection == nil {
		return 0
	}
	return r.Meta.Collection.IntervalMs
}

// AllTags returns the report tags merged with the test-context tags,
// preserving first occurrence order.
func (r *Report) AllTags() []string {
	var tags []string
	seen := make(map[string]bool)
	add := func(list []string) {
		for _, t := range list {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			tags = append(tags, t)
		}
	}
	add(r.Tags)
	if r.Meta != nil && r.Meta.TestContext != nil {
		add(r.Meta.TestContext.Tags)
	}
	return tags
}

// Metadata describes the collection run that produced a report.
type Metadata struct {
	SchemaVersion   int            `json:"schema_version,omitempty"`
	Collection      *Collection    `json:"collection,omitempty"`
	TestContext     *TestContext   `json:"test_context,omitempty"`
	ProcessAliases  []ProcessAlias `json:"process_aliases,omitempty"`
	ProcessSnapshot []ProcessInfo  `json:"process_snapshot,omitempty"`
}

// Collection holds the collector parameters of a run.
type Collection struct {
	Mode            string `json:"mode,omitempty"`
	IntervalMs      int64  `json:"interval_ms,omitempty"`
	TargetPIDs      []int  `json:"target_pids,omitempty"`
	StartedAt       string `json:"started_at,omitempty"`
	EndedAt         string `json:"ended_at,omitempty"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
}

// TestContext is free-form context entered before a run.
type TestContext struct {
	ScenarioName string   `json:"scenario_name,omitempty"`
	BuildID      string   `json:"build_id,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// ProcessAlias is a user-assigned name for a PID.
type ProcessAlias struct {
	PID   int    `json:"pid"`
	Alias string `json:"alias"`
}

// ProcessInfo is one entry of the process snapshot taken at collection start.
type ProcessInfo struct {
	PID      int    `json:"pid"`
	Alias    string `json:"alias,omitempty"`
	Name     string `json:"name,omitempty"`
	ProcType string `json:"proc_type,omitempty"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
}

// ReportSummary is a report without its batch data, as listed by GetReports.
type ReportSummary struct {
	ID              int64    `json:"id"`
	CreatedAt       string   `json:"created_at"`
	Title           string   `json:"title"`
	Tags            []string `json:"tags,omitempty"`
	DurationSeconds int64    `json:"duration_seconds"`
	FolderPath      string   `json:"folder_path,omitempty"`
}

// TagStat counts how many reports carry a tag.
type TagStat struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Package dataset reads and writes portable report datasets and comparison
// bundles.
//
// A report dataset wraps one report:
//
//	{"schema_version": 1, "exported_at": "...", "report": {...}}
//
// A comparison bundle carries every report of a comparison plus the
// baseline and selections keyed by the exporting side's report ids. Import
// assigns new ids and remaps the context.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// SchemaVersion is the only dataset schema understood.
const SchemaVersion = 1

// BundleTypeComparison marks a comparison bundle.
const BundleTypeComparison = "comparison"

var (
	// ErrUnsupportedSchema indicates a dataset with another schema version
	// or bundle type.
	ErrUnsupportedSchema = errors.New("unsupported dataset schema")

	// ErrMalformedDataset indicates a dataset that could not be decoded.
	ErrMalformedDataset = errors.New("malformed dataset")
)

// ReportDataset is a single exported report.
type ReportDataset struct {
	SchemaVersion int            `json:"schema_version"`
	ExportedAt    string         `json:"exported_at"`
	Report        *domain.Report `json:"report"`
}

// ComparisonContext is the comparison state of a bundle, keyed by the
// report ids of the exporting side.
type ComparisonContext struct {
	Title              string          `json:"title,omitempty"`
	BaselineOriginalID *int64          `json:"baseline_original_id,omitempty"`
	CPUSelectionsByID  map[int64][]int `json:"cpu_selections_by_id"`
	MemSelectionsByID  map[int64][]int `json:"mem_selections_by_id"`
}

// ComparisonBundle is an exported comparison with all of its reports.
type ComparisonBundle struct {
	SchemaVersion     int               `json:"schema_version"`
	BundleType        string            `json:"bundle_type"`
	BundleID          string            `json:"bundle_id"`
	ExportedAt        string            `json:"exported_at"`
	Reports           []*domain.Report  `json:"reports"`
	ComparisonContext ComparisonContext `json:"comparison_context"`
}

type header struct {
	SchemaVersion int    `json:"schema_version"`
	BundleType    string `json:"bundle_type"`
}

func readHeader(data []byte) (header, error) {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("dataset: invalid JSON: %w: %w", ErrMalformedDataset, err)
	}
	if h.SchemaVersion != SchemaVersion {
		return h, fmt.Errorf("dataset: schema_version %d: %w", h.SchemaVersion, ErrUnsupportedSchema)
	}
	return h, nil
}

// DecodeReportDataset parses and checks a report dataset.
func DecodeReportDataset(data []byte) (*ReportDataset, error) {
	if _, err := readHeader(data); err != nil {
		return nil, err
	}
	var ds ReportDataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("dataset: decode report: %w: %w", ErrMalformedDataset, err)
	}
	if ds.Report == nil {
		return nil, fmt.Errorf("dataset: missing report: %w", ErrMalformedDataset)
	}
	return &ds, nil
}

// DecodeComparisonBundle parses and checks a comparison bundle. A bundle
// needs at least two reports with distinct ids.
func DecodeComparisonBundle(data []byte) (*ComparisonBundle, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if h.BundleType != BundleTypeComparison {
		return nil, fmt.Errorf("dataset: bundle_type %q: %w", h.BundleType, ErrUnsupportedSchema)
	}

	var b ComparisonBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("dataset: decode bundle: %w: %w", ErrMalformedDataset, err)
	}
	if len(b.Reports) < 2 {
		return nil, fmt.Errorf("dataset: bundle has %d report(s), need at least 2: %w", len(b.Reports), ErrMalformedDataset)
	}
	seen := make(map[int64]bool, len(b.Reports))
	for i, r := range b.Reports {
		if r == nil {
			return nil, fmt.Errorf("dataset: report %d is null: %w", i, ErrMalformedDataset)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("dataset: report id %d appears twice: %w", r.ID, ErrMalformedDataset)
		}
		seen[r.ID] = true
	}
	return &b, nil
}

// Filename returns a filesystem-friendly name for an exported report.
func Filename(kind string, id int64, title, createdAt string) string {
	return fmt.Sprintf("%s_%s_%d_%s.json", kind, slug(title, 40), id, compactTime(createdAt))
}

func slug(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxLen {
			break
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "report"
	}
	return out
}

// compactTime keeps the digits, T and Z of a timestamp.
func compactTime(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == 'T' || r == 'Z' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "unknown_time"
	}
	return b.String()
}

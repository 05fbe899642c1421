package analytics

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
	"nathanbeddoewebdev/perfsight/internal/stats"
)

// GroupField names one stored analysis value aggregated per group.
type GroupField string

const (
	FieldCPUAvg    GroupField = "cpu_avg"
	FieldCPUP95    GroupField = "cpu_p95"
	FieldMemAvg    GroupField = "mem_avg"
	FieldMemP95    GroupField = "mem_p95"
	FieldMemGrowth GroupField = "mem_growth"
	FieldScore     GroupField = "score"
)

// GroupFields lists the aggregated fields in display order.
var GroupFields = []GroupField{FieldCPUAvg, FieldCPUP95, FieldMemAvg, FieldMemP95, FieldMemGrowth, FieldScore}

// FieldStats aggregates one field over a group's members. Values are nil
// when no member had a finite value.
type FieldStats struct {
	N   int      `json:"n"`
	Avg *float64 `json:"avg"`
	P95 *float64 `json:"p95"`
	Max *float64 `json:"max"`
}

// GroupRow is one group of a comparison. The baseline row carries no deltas.
type GroupRow struct {
	Name     string                    `json:"name"`
	Mode     domain.MatchMode          `json:"mode"`
	Tags     []string                  `json:"tags"`
	Members  []int64                   `json:"members"`
	Baseline bool                      `json:"baseline"`
	Fields   map[GroupField]FieldStats `json:"fields"`
	Deltas   map[GroupField]*float64   `json:"deltas,omitempty"`
}

// GroupComparison is the result of CompareGroups.
type GroupComparison struct {
	BaselineKey string     `json:"baseline_key,omitempty"`
	Groups      []GroupRow `json:"groups"`
}

// MatchesGroup reports whether r carries the group's tags, compared without
// regard to case. Only r.Tags is consulted. An empty tag list matches every
// report.
func MatchesGroup(r *domain.Report, def domain.GroupDef) bool {
	if len(def.Tags) == 0 {
		return true
	}
	have := make(map[string]bool)
	for _, t := range r.Tags {
		have[strings.ToLower(strings.TrimSpace(t))] = true
	}
	for _, want := range def.Tags {
		hit := have[strings.ToLower(strings.TrimSpace(want))]
		if def.Mode == domain.MatchAll && !hit {
			return false
		}
		if def.Mode != domain.MatchAll && hit {
			return true
		}
	}
	return def.Mode == domain.MatchAll
}

// CompareGroups partitions pool into the defined groups and aggregates the
// stored analysis of their members. Every group must match at least two
// reports; this is checked for all groups before anything is computed. An
// empty baselineKey compares without deltas.
func CompareGroups(pool []*domain.Report, defs []domain.GroupDef, baselineKey string) (GroupComparison, error) {
	if len(defs) == 0 {
		return GroupComparison{}, fmt.Errorf("analytics: no groups defined: %w", domain.ErrInvalidInput)
	}

	names := make(map[string]bool, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return GroupComparison{}, fmt.Errorf("analytics: group name is empty: %w", domain.ErrInvalidInput)
		}
		if names[def.Name] {
			return GroupComparison{}, fmt.Errorf("analytics: duplicate group %q: %w", def.Name, domain.ErrInvalidInput)
		}
		names[def.Name] = true
	}
	if baselineKey != "" && !names[baselineKey] {
		return GroupComparison{}, fmt.Errorf("analytics: %q: %w", baselineKey, ErrUnknownBaseline)
	}

	members := make([][]*domain.Report, len(defs))
	for i, def := range defs {
		for _, r := range pool {
			if MatchesGroup(r, def) {
				members[i] = append(members[i], r)
			}
		}
		if len(members[i]) < 2 {
			return GroupComparison{}, fmt.Errorf("analytics: group %q matched %d report(s): %w",
				def.Name, len(members[i]), ErrInsufficientMembers)
		}
	}

	rows := make([]GroupRow, len(defs))
	baseIdx := -1
	for i, def := range defs {
		mode := def.Mode
		if mode == "" {
			mode = domain.MatchAny
		}
		rows[i] = GroupRow{
			Name:     def.Name,
			Mode:     mode,
			Tags:     def.Tags,
			Baseline: def.Name == baselineKey,
			Fields:   make(map[GroupField]FieldStats, len(GroupFields)),
		}
		for _, r := range members[i] {
			rows[i].Members = append(rows[i].Members, r.ID)
		}
		slices.Sort(rows[i].Members)
		for _, f := range GroupFields {
			rows[i].Fields[f] = aggregateField(members[i], f)
		}
		if rows[i].Baseline {
			baseIdx = i
		}
	}

	if baseIdx >= 0 {
		base := rows[baseIdx]
		for i := range rows {
			if i == baseIdx {
				continue
			}
			rows[i].Deltas = make(map[GroupField]*float64, len(GroupFields))
			for _, f := range GroupFields {
				rows[i].Deltas[f] = deltaOf(rows[i].Fields[f].Avg, base.Fields[f].Avg)
			}
		}
	}

	return GroupComparison{BaselineKey: baselineKey, Groups: rows}, nil
}

func aggregateField(reports []*domain.Report, f GroupField) FieldStats {
	var values []float64
	for _, r := range reports {
		if v, ok := storedValue(r, f); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			values = append(values, v)
		}
	}
	return FieldStats{
		N:   len(values),
		Avg: stats.Opt(stats.Mean(values)),
		P95: stats.Opt(stats.Percentile(values, 0.95)),
		Max: stats.Opt(stats.Max(values)),
	}
}

// storedValue reads a field from the report's precomputed analysis.
func storedValue(r *domain.Report, f GroupField) (float64, bool) {
	if r.Analysis == nil {
		return 0, false
	}
	s := r.Analysis.Summary
	switch f {
	case FieldCPUAvg:
		return s.AvgCPU, s.HasCPU()
	case FieldCPUP95:
		return s.P95CPU, s.HasCPU()
	case FieldMemAvg:
		return s.AvgMemMB, s.HasMemory()
	case FieldMemP95:
		if s.P95MemMB == nil {
			return 0, false
		}
		return *s.P95MemMB, true
	case FieldMemGrowth:
		return s.MemGrowthRate, s.HasGrowth()
	case FieldScore:
		return float64(r.Analysis.Score), true
	}
	return 0, false
}

func deltaOf(v, base *float64) *float64 {
	if v == nil || base == nil {
		return nil
	}
	d := *v - *base
	return &d
}

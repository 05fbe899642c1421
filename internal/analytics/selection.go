package analytics

import (
	"fmt"
	"maps"
	"slices"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// PIDSet is a set of process identifiers.
type PIDSet map[int]struct{}

// NewPIDSet returns a set holding pids. It is never nil, so an empty result
// still means "nothing selected".
func NewPIDSet(pids ...int) PIDSet {
	s := make(PIDSet, len(pids))
	for _, pid := range pids {
		s[pid] = struct{}{}
	}
	return s
}

func (s PIDSet) Add(pid int)    { s[pid] = struct{}{} }
func (s PIDSet) Remove(pid int) { delete(s, pid) }
func (s PIDSet) Len() int       { return len(s) }

// Has reports whether pid is in the set.
func (s PIDSet) Has(pid int) bool {
	_, ok := s[pid]
	return ok
}

// Clone returns a copy that never aliases s. Cloning nil yields an empty set.
func (s PIDSet) Clone() PIDSet {
	out := make(PIDSet, len(s))
	maps.Copy(out, s)
	return out
}

// Sorted returns the members in ascending order.
func (s PIDSet) Sorted() []int {
	return slices.Sorted(maps.Keys(s))
}

// Kind is the metric a selection applies to.
type Kind string

const (
	KindCPU    Kind = "cpu"
	KindMemory Kind = "memory"
)

// ParseKind accepts "cpu" and "memory" (or "mem").
func ParseKind(s string) (Kind, error) {
	switch s {
	case "cpu":
		return KindCPU, nil
	case "memory", "mem":
		return KindMemory, nil
	}
	return "", fmt.Errorf("analytics: unknown metric kind %q: %w", s, domain.ErrInvalidInput)
}

// SelectionKey addresses one selection set.
type SelectionKey struct {
	ReportID int64
	Kind     Kind
}

// Selections holds the included PIDs per report and metric kind. It is a
// plain value handed to the aggregation functions; mutators return a copy
// and leave the receiver untouched.
type Selections map[SelectionKey]PIDSet

// DefaultSelections selects every discovered PID of every report for both
// kinds.
func DefaultSelections(reports []*domain.Report) Selections {
	sel := make(Selections, 2*len(reports))
	for _, r := range reports {
		pids := DiscoverPIDs(r.Metrics)
		sel[SelectionKey{r.ID, KindCPU}] = NewPIDSet(pids...)
		sel[SelectionKey{r.ID, KindMemory}] = NewPIDSet(pids...)
	}
	return sel
}

// SelectionsFromConfig restores saved selections for reports. Reports
// without a saved entry for a kind default to all their discovered PIDs.
func SelectionsFromConfig(reports []*domain.Report, cpu, mem map[int64][]int) Selections {
	sel := DefaultSelections(reports)
	for _, r := range reports {
		if pids, ok := cpu[r.ID]; ok {
			sel[SelectionKey{r.ID, KindCPU}] = NewPIDSet(pids...)
		}
		if pids, ok := mem[r.ID]; ok {
			sel[SelectionKey{r.ID, KindMemory}] = NewPIDSet(pids...)
		}
	}
	return sel
}

// Get returns the selection for a report and kind.
func (s Selections) Get(reportID int64, kind Kind) (PIDSet, bool) {
	set, ok := s[SelectionKey{reportID, kind}]
	return set, ok
}

// resolve returns the explicit selection, or every PID of the report when no
// selection was recorded for it.
func (s Selections) resolve(r *domain.Report, kind Kind) PIDSet {
	if set, ok := s.Get(r.ID, kind); ok {
		return set
	}
	return NewPIDSet(DiscoverPIDs(r.Metrics)...)
}

// Clone returns a deep copy.
func (s Selections) Clone() Selections {
	out := make(Selections, len(s))
	for k, v := range s {
		out[k] = v.Clone()
	}
	return out
}

// With returns a copy with the selection for (reportID, kind) replaced.
func (s Selections) With(reportID int64, kind Kind, pids PIDSet) Selections {
	out := s.Clone()
	out[SelectionKey{reportID, kind}] = pids.Clone()
	return out
}

// Toggle returns a copy with pid flipped in the (reportID, kind) selection.
func (s Selections) Toggle(reportID int64, kind Kind, pid int) Selections {
	out := s.Clone()
	key := SelectionKey{reportID, kind}
	set, ok := out[key]
	if !ok {
		set = make(PIDSet)
		out[key] = set
	}
	if set.Has(pid) {
		set.Remove(pid)
	} else {
		set.Add(pid)
	}
	return out
}

// ToConfig flattens the selections into the persisted per-kind maps.
func (s Selections) ToConfig() (cpu, mem map[int64][]int) {
	cpu = make(map[int64][]int)
	mem = make(map[int64][]int)
	for k, set := range s {
		pids := set.Sorted()
		if pids == nil {
			pids = []int{}
		}
		switch k.Kind {
		case KindCPU:
			cpu[k.ReportID] = pids
		case KindMemory:
			mem[k.ReportID] = pids
		}
	}
	return cpu, mem
}

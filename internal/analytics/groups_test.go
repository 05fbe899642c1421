package analytics

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

func analyzed(id int64, tags []string, avgCPU, avgMem float64, score int) *domain.Report {
	p95 := avgMem + 10
	return &domain.Report{
		ID:   id,
		Tags: tags,
		Analysis: &domain.AnalysisSummary{
			Score: score,
			Summary: domain.MetricSummary{
				CPUSamples:    3,
				MemSamples:    3,
				AvgCPU:        avgCPU,
				P95CPU:        avgCPU * 2,
				AvgMemMB:      avgMem,
				P95MemMB:      &p95,
				MemGrowthRate: 0.1,
			},
		},
	}
}

func TestMatchesGroup(t *testing.T) {
	r := &domain.Report{
		Tags: []string{"Build-42", "linux"},
		Meta: &domain.Metadata{TestContext: &domain.TestContext{Tags: []string{"nightly"}}},
	}
	tests := []struct {
		name string
		def  domain.GroupDef
		want bool
	}{
		{"empty tags any", domain.GroupDef{Mode: domain.MatchAny}, true},
		{"empty tags all", domain.GroupDef{Mode: domain.MatchAll}, true},
		{"any hit case-insensitive", domain.GroupDef{Mode: domain.MatchAny, Tags: []string{"build-42", "mac"}}, true},
		{"any miss", domain.GroupDef{Mode: domain.MatchAny, Tags: []string{"mac"}}, false},
		{"all hit", domain.GroupDef{Mode: domain.MatchAll, Tags: []string{"LINUX", "build-42"}}, true},
		{"test context tags ignored", domain.GroupDef{Mode: domain.MatchAny, Tags: []string{"nightly"}}, false},
		{"all partial", domain.GroupDef{Mode: domain.MatchAll, Tags: []string{"linux", "mac"}}, false},
		{"default mode is any", domain.GroupDef{Tags: []string{"mac", "linux"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesGroup(r, tt.def); got != tt.want {
				t.Errorf("MatchesGroup = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompareGroups_EmptyTagsMatchAll(t *testing.T) {
	pool := []*domain.Report{
		analyzed(1, []string{"a"}, 10, 100, 90),
		analyzed(2, []string{"b"}, 20, 200, 80),
		analyzed(3, nil, 30, 300, 70),
	}
	got, err := CompareGroups(pool, []domain.GroupDef{{Name: "A", Mode: domain.MatchAll}}, "")
	if err != nil {
		t.Fatalf("CompareGroups: %v", err)
	}
	if diff := cmp.Diff([]int64{1, 2, 3}, got.Groups[0].Members); diff != "" {
		t.Errorf("members (-want +got):\n%s", diff)
	}
}

func TestCompareGroups_SingleMemberFails(t *testing.T) {
	pool := []*domain.Report{
		analyzed(1, []string{"old"}, 10, 100, 90),
		analyzed(2, []string{"new"}, 20, 200, 80),
		analyzed(3, []string{"new"}, 30, 300, 70),
	}
	defs := []domain.GroupDef{
		{Name: "new", Tags: []string{"new"}},
		{Name: "old", Tags: []string{"old"}},
	}
	got, err := CompareGroups(pool, defs, "old")
	if !errors.Is(err, ErrInsufficientMembers) {
		t.Fatalf("err = %v, want ErrInsufficientMembers", err)
	}
	if got.Groups != nil {
		t.Error("no partial result expected")
	}
}

func TestCompareGroups_AggregatesAndDeltas(t *testing.T) {
	pool := []*domain.Report{
		analyzed(1, []string{"base"}, 10, 100, 90),
		analyzed(2, []string{"base"}, 20, 200, 80),
		analyzed(3, []string{"cand"}, 30, 300, 70),
		analyzed(4, []string{"cand"}, 50, 500, 50),
	}
	defs := []domain.GroupDef{
		{Name: "baseline", Mode: domain.MatchAny, Tags: []string{"base"}},
		{Name: "candidate", Mode: domain.MatchAny, Tags: []string{"cand"}},
	}

	got, err := CompareGroups(pool, defs, "baseline")
	if err != nil {
		t.Fatalf("CompareGroups: %v", err)
	}

	base, cand := got.Groups[0], got.Groups[1]
	if !base.Baseline || cand.Baseline {
		t.Errorf("baseline flags = %v/%v, want true/false", base.Baseline, cand.Baseline)
	}
	if base.Deltas != nil {
		t.Error("baseline row should not carry deltas")
	}

	wantCPU := FieldStats{N: 2, Avg: ptr(40), P95: ptr(50), Max: ptr(50)}
	if diff := cmp.Diff(wantCPU, cand.Fields[FieldCPUAvg]); diff != "" {
		t.Errorf("candidate cpu_avg (-want +got):\n%s", diff)
	}
	wantDeltas := map[GroupField]*float64{
		FieldCPUAvg:    ptr(25),
		FieldCPUP95:    ptr(50),
		FieldMemAvg:    ptr(250),
		FieldMemP95:    ptr(250),
		FieldMemGrowth: ptr(0),
		FieldScore:     ptr(-25),
	}
	if diff := cmp.Diff(wantDeltas, cand.Deltas); diff != "" {
		t.Errorf("candidate deltas (-want +got):\n%s", diff)
	}
}

func TestCompareGroups_SkipsReportsWithoutAnalysis(t *testing.T) {
	pool := []*domain.Report{
		analyzed(1, nil, 10, 100, 90),
		{ID: 2},
	}
	got, err := CompareGroups(pool, []domain.GroupDef{{Name: "all"}}, "")
	if err != nil {
		t.Fatalf("CompareGroups: %v", err)
	}
	if n := got.Groups[0].Fields[FieldScore].N; n != 1 {
		t.Errorf("score n = %d, want 1", n)
	}
}

func TestCompareGroups_Validation(t *testing.T) {
	pool := []*domain.Report{analyzed(1, nil, 1, 1, 1), analyzed(2, nil, 1, 1, 1)}

	tests := []struct {
		name     string
		defs     []domain.GroupDef
		baseline string
		want     error
	}{
		{"no groups", nil, "", domain.ErrInvalidInput},
		{"empty name", []domain.GroupDef{{}}, "", domain.ErrInvalidInput},
		{"duplicate", []domain.GroupDef{{Name: "x"}, {Name: "x"}}, "", domain.ErrInvalidInput},
		{"unknown baseline", []domain.GroupDef{{Name: "x"}}, "y", ErrUnknownBaseline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CompareGroups(pool, tt.defs, tt.baseline); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCompareGroups_MembersAscending(t *testing.T) {
	pool := []*domain.Report{
		analyzed(4, []string{"x"}, 10, 100, 90),
		analyzed(3, []string{"x"}, 20, 200, 80),
		analyzed(1, []string{"x"}, 30, 300, 70),
	}
	got, err := CompareGroups(pool, []domain.GroupDef{{Name: "x", Tags: []string{"x"}}}, "")
	if err != nil {
		t.Fatalf("CompareGroups: %v", err)
	}
	if diff := cmp.Diff([]int64{1, 3, 4}, got.Groups[0].Members); diff != "" {
		t.Errorf("members (-want +got):\n%s", diff)
	}
}

func TestCompareGroups_MemoryOnlyReportsHaveNoCPU(t *testing.T) {
	memoryOnly := func(id int64, mib float64) *domain.Report {
		r := &domain.Report{ID: id, Tags: []string{"x"}, Metrics: []domain.MetricBatch{
			batch(0, map[int]domain.MetricSample{1: memSample(mib)}),
			batch(1, map[int]domain.MetricSample{1: memSample(mib)}),
		}}
		r.Analysis = Analyze(r)
		return r
	}
	pool := []*domain.Report{memoryOnly(1, 100), memoryOnly(2, 300)}

	got, err := CompareGroups(pool, []domain.GroupDef{{Name: "x", Tags: []string{"x"}}}, "")
	if err != nil {
		t.Fatalf("CompareGroups: %v", err)
	}
	fields := got.Groups[0].Fields
	for _, f := range []GroupField{FieldCPUAvg, FieldCPUP95} {
		if diff := cmp.Diff(FieldStats{}, fields[f]); diff != "" {
			t.Errorf("%s (-want +got):\n%s", f, diff)
		}
	}
	wantMem := FieldStats{N: 2, Avg: ptr(200), P95: ptr(300), Max: ptr(300)}
	if diff := cmp.Diff(wantMem, fields[FieldMemAvg]); diff != "" {
		t.Errorf("mem_avg (-want +got):\n%s", diff)
	}
}

func TestStoredValue_RequiresSamples(t *testing.T) {
	r := &domain.Report{Analysis: &domain.AnalysisSummary{Summary: domain.MetricSummary{MemSamples: 1, AvgMemMB: 50}}}

	tests := []struct {
		field GroupField
		ok    bool
	}{
		{FieldCPUAvg, false},
		{FieldCPUP95, false},
		{FieldMemAvg, true},
		{FieldMemGrowth, false},
		{FieldScore, true},
	}
	for _, tt := range tests {
		if _, ok := storedValue(r, tt.field); ok != tt.ok {
			t.Errorf("storedValue(%s) ok = %v, want %v", tt.field, ok, tt.ok)
		}
	}
}

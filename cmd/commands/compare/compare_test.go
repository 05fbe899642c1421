package compare

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nathanbeddoewebdev/perfsight/internal/analytics"
	"nathanbeddoewebdev/perfsight/internal/backend"
	"nathanbeddoewebdev/perfsight/internal/config"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
	"nathanbeddoewebdev/perfsight/internal/store"

	"github.com/google/go-cmp/cmp"
)

const mib = 1024 * 1024

func setupBackend(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "perfsight.db")
	cfgPath := filepath.Join(dir, "config.json")
	config.SetPath(cfgPath)
	t.Cleanup(config.ResetPath)
	if err := (&config.Config{DatabasePath: dbPath}).SaveTo(cfgPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	backend.Reset()
	t.Cleanup(backend.Reset)
	store.Register()
	return dbPath
}

func openStore(t *testing.T, dbPath string) *store.SQLiteStore {
	t.Helper()
	s, err := store.OpenAt(dbPath)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, dbPath string, reports ...*domain.Report) []int64 {
	t.Helper()
	s, err := store.OpenAt(dbPath)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	defer s.Close()

	ids := make([]int64, len(reports))
	for i, r := range reports {
		if ids[i], err = s.SaveReport(context.Background(), r); err != nil {
			t.Fatalf("SaveReport: %v", err)
		}
	}
	return ids
}

func seedComparison(t *testing.T, dbPath string, cfg *domain.ComparisonConfig) int64 {
	t.Helper()
	id, err := openStore(t, dbPath).CreateComparison(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateComparison: %v", err)
	}
	return id
}

// runReport returns a two-batch report 5 s apart. PID 10 "renderer" uses
// the given CPU values at 100 MiB; PID 20 runs at 4% and 6% with mem20 MiB.
func runReport(title string, cpu10 [2]float64, mem20 float64, tags ...string) *domain.Report {
	batch := func(ts string, cpu, other float64) domain.MetricBatch {
		return domain.MetricBatch{Timestamp: ts, Metrics: map[int]domain.MetricSample{
			10: {CPUOSUsage: domain.Some(cpu), MemoryRSS: domain.Some(100 * mib)},
			20: {CPUOSUsage: domain.Some(other), MemoryRSS: domain.Some(mem20 * mib)},
		}}
	}
	return &domain.Report{
		Title: title,
		Tags:  tags,
		Metrics: []domain.MetricBatch{
			batch("2026-04-02T09:00:00Z", cpu10[0], 4),
			batch("2026-04-02T09:00:05Z", cpu10[1], 6),
		},
		Meta: &domain.Metadata{
			Collection:     &domain.Collection{Mode: "system", IntervalMs: 5000},
			ProcessAliases: []domain.ProcessAlias{{PID: 10, Alias: "renderer"}},
		},
	}
}

// seedPair stores a baseline and a slower run and a comparison over them.
func seedPair(t *testing.T, dbPath string) int64 {
	t.Helper()
	ids := seed(t, dbPath,
		runReport("main", [2]float64{20, 40}, 300),
		runReport("feature", [2]float64{50, 70}, 400),
	)
	return seedComparison(t, dbPath, &domain.ComparisonConfig{Title: "main vs feature", ReportIDs: ids})
}

func execCompare(t *testing.T, args ...string) (stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	cmd.Execute()
	return outBuf.String(), errBuf.String()
}

func assertContainsAll(t *testing.T, output string, label string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in %s output:\n%s", want, label, output)
		}
	}
}

func TestCreateAndList(t *testing.T) {
	db := setupBackend(t)
	seed(t, db, runReport("a", [2]float64{1, 2}, 10), runReport("b", [2]float64{1, 2}, 10))

	stdout, stderr := execCompare(t, "create", "--reports", "1,2", "--baseline", "2", "--title", "a vs b")
	if stderr != "" {
		t.Fatalf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, "Created comparison 1") {
		t.Errorf("unexpected output: %s", stdout)
	}

	stdout, _ = execCompare(t, "list")
	assertContainsAll(t, stdout, "list", []string{"ID", "REPORTS", "BASELINE", "a vs b", "1,2"})

	stdout, _ = execCompare(t, "list", "-o", "json")
	var got []domain.ComparisonSummary
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if len(got) != 1 || got[0].BaselineReportID == nil || *got[0].BaselineReportID != 2 {
		t.Errorf("list = %+v", got)
	}
}

func TestCreate_TooFewReports(t *testing.T) {
	db := setupBackend(t)
	seed(t, db, runReport("a", [2]float64{1, 2}, 10))

	_, stderr := execCompare(t, "create", "--reports", "1")
	if !strings.Contains(stderr, "at least two reports") {
		t.Errorf("expected too few reports error, got: %s", stderr)
	}
}

func TestList_Empty(t *testing.T) {
	setupBackend(t)

	stdout, _ := execCompare(t, "list")
	if !strings.Contains(stdout, "No comparisons found.") {
		t.Errorf("expected empty message, got: %s", stdout)
	}
}

func TestShow_Table(t *testing.T) {
	db := setupBackend(t)
	id := seedPair(t, db)
	if id != 1 {
		t.Fatalf("expected comparison id 1, got %d", id)
	}

	stdout, stderr := execCompare(t, "show", "1")
	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	assertContainsAll(t, stdout, "show", []string{
		"main vs feature", "Interval: 5000 ms", "TIME (S)", "#1", "#2",
		"0.0", "5.0", "24.0", "46.0", "54.0", "76.0",
	})

	stdout, _ = execCompare(t, "show", "1", "--metric", "memory")
	assertContainsAll(t, stdout, "show memory", []string{"400.0", "500.0"})
}

func TestShow_Chart(t *testing.T) {
	db := setupBackend(t)
	seedPair(t, db)

	stdout, _ := execCompare(t, "show", "1", "--chart")
	assertContainsAll(t, stdout, "chart", []string{"CPU usage (%)", "#1 main", "#2 feature", "avg: 35.0%", "avg: 65.0%"})
}

func TestShow_NotFound(t *testing.T) {
	setupBackend(t)

	_, stderr := execCompare(t, "show", "7")
	if !strings.Contains(stderr, "not found") {
		t.Errorf("expected not found error, got: %s", stderr)
	}
}

func TestSelect_PIDsNarrowTheSeries(t *testing.T) {
	db := setupBackend(t)
	seedPair(t, db)

	stdout, stderr := execCompare(t, "select", "1", "--report", "1", "--kind", "cpu", "--pids", "10")
	if stderr != "" {
		t.Fatalf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, "Selected 1 cpu process(es) of report 1") {
		t.Errorf("unexpected output: %s", stdout)
	}

	cfg, err := openStore(t, db).GetComparisonDetail(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetComparisonDetail: %v", err)
	}
	if diff := cmp.Diff([]int{10}, cfg.CPUSelections[1]); diff != "" {
		t.Errorf("cpu selection (-want +got):\n%s", diff)
	}

	stdout, _ = execCompare(t, "show", "1", "-o", "json")
	var a analytics.Alignment
	if err := json.Unmarshal([]byte(stdout), &a); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if got := a.Rows[0].CPU[1]; got == nil || *got != 20 {
		t.Errorf("report 1 cpu at t=0 = %v, want 20", got)
	}
	if got := a.Rows[0].CPU[2]; got == nil || *got != 54 {
		t.Errorf("report 2 cpu at t=0 = %v, want 54", got)
	}
}

func TestSelect_NoneClearsTheSeries(t *testing.T) {
	db := setupBackend(t)
	seedPair(t, db)

	if _, stderr := execCompare(t, "select", "1", "--report", "2", "--kind", "memory", "--none"); stderr != "" {
		t.Fatalf("unexpected stderr: %s", stderr)
	}

	stdout, _ := execCompare(t, "show", "1", "-o", "json")
	var a analytics.Alignment
	if err := json.Unmarshal([]byte(stdout), &a); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if got := a.Rows[0].MemoryMiB[2]; got != nil {
		t.Errorf("memory of report 2 = %v, want null", *got)
	}
}

func TestSelect_UnknownReport(t *testing.T) {
	db := setupBackend(t)
	seedPair(t, db)

	_, stderr := execCompare(t, "select", "1", "--report", "9", "--all")
	if !strings.Contains(stderr, "not part of comparison") {
		t.Errorf("expected unknown report error, got: %s", stderr)
	}
}

func TestBaseline_SetAndClear(t *testing.T) {
	db := setupBackend(t)
	seedPair(t, db)
	s := openStore(t, db)

	stdout, _ := execCompare(t, "baseline", "1", "2")
	if !strings.Contains(stdout, "Baseline of comparison 1 is report 2") {
		t.Errorf("unexpected output: %s", stdout)
	}
	cfg, err := s.GetComparisonDetail(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetComparisonDetail: %v", err)
	}
	if cfg.BaselineReportID == nil || *cfg.BaselineReportID != 2 {
		t.Errorf("baseline = %v, want 2", cfg.BaselineReportID)
	}

	execCompare(t, "baseline", "1", "none")
	cfg, err = s.GetComparisonDetail(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetComparisonDetail: %v", err)
	}
	if cfg.BaselineReportID != nil {
		t.Errorf("baseline = %d, want cleared", *cfg.BaselineReportID)
	}

	_, stderr := execCompare(t, "baseline", "1", "9")
	if !strings.Contains(stderr, "not part of comparison") {
		t.Errorf("expected unknown report error, got: %s", stderr)
	}
}

func TestReports_Replace(t *testing.T) {
	db := setupBackend(t)
	seedPair(t, db)
	seed(t, db, runReport("extra", [2]float64{5, 5}, 10))

	stdout, stderr := execCompare(t, "reports", "1", "--reports", "1,3", "--baseline", "3")
	if stderr != "" {
		t.Fatalf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, "now covers reports 1,3") {
		t.Errorf("unexpected output: %s", stdout)
	}

	cfg, err := openStore(t, db).GetComparisonDetail(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetComparisonDetail: %v", err)
	}
	if diff := cmp.Diff([]int64{1, 3}, cfg.ReportIDs); diff != "" {
		t.Errorf("report ids (-want +got):\n%s", diff)
	}
}

func TestDrivers(t *testing.T) {
	db := setupBackend(t)
	seedPair(t, db)

	stdout, _ := execCompare(t, "drivers", "1", "-o", "json")
	var got []analytics.DriverReport
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if len(got) != 1 || got[0].ReportID != 2 {
		t.Fatalf("drivers = %+v", got)
	}
	want := []analytics.Driver{{PID: 10, Label: "renderer", Baseline: 30, Target: 60, Delta: 30}}
	if diff := cmp.Diff(want, got[0].CPU); diff != "" {
		t.Errorf("cpu drivers (-want +got):\n%s", diff)
	}
	if len(got[0].MemoryMiB) != 1 || got[0].MemoryMiB[0].PID != 20 || got[0].MemoryMiB[0].Delta != 100 {
		t.Errorf("memory drivers = %+v", got[0].MemoryMiB)
	}

	stdout, _ = execCompare(t, "drivers", "1")
	assertContainsAll(t, stdout, "drivers", []string{"Report 2: feature", "CPU (%)", "renderer", "+30.0", "Process 20", "+100.0"})
}

func TestDrivers_InvalidTop(t *testing.T) {
	setupBackend(t)

	_, stderr := execCompare(t, "drivers", "1", "--top", "0")
	if !strings.Contains(stderr, "--top must be positive") {
		t.Errorf("expected top error, got: %s", stderr)
	}
}

func TestGroups_AllReports(t *testing.T) {
	db := setupBackend(t)
	seed(t, db,
		runReport("m1", [2]float64{20, 40}, 300, "main"),
		runReport("m2", [2]float64{20, 40}, 300, "main"),
		runReport("f1", [2]float64{50, 70}, 300, "feature", "linux"),
		runReport("f2", [2]float64{50, 70}, 300, "feature"),
	)

	stdout, stderr := execCompare(t, "groups", "--all",
		"--group", "main:main", "--group", "feature:any:feature", "--baseline", "main", "-o", "json")
	if stderr != "" {
		t.Fatalf("unexpected stderr: %s", stderr)
	}

	var got analytics.GroupComparison
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if len(got.Groups) != 2 || !got.Groups[0].Baseline {
		t.Fatalf("groups = %+v", got.Groups)
	}
	if diff := cmp.Diff([]int64{3, 4}, got.Groups[1].Members); diff != "" {
		t.Errorf("feature members (-want +got):\n%s", diff)
	}
	if d := got.Groups[1].Deltas[analytics.FieldCPUAvg]; d == nil || *d != 30 {
		t.Errorf("cpu_avg delta = %v, want 30", d)
	}

	stdout, _ = execCompare(t, "groups", "--all", "--group", "main:main", "--group", "feature:feature", "--baseline", "main")
	assertContainsAll(t, stdout, "groups", []string{"GROUP", "CPU_AVG", "main (base)", "35.00", "65.00 (+30.00)"})
}

func TestGroups_FileAndInsufficientMembers(t *testing.T) {
	db := setupBackend(t)
	seed(t, db,
		runReport("m1", [2]float64{20, 40}, 300, "main"),
		runReport("m2", [2]float64{20, 40}, 300, "main"),
		runReport("f1", [2]float64{50, 70}, 300, "feature"),
	)
	path := filepath.Join(t.TempDir(), "groups.yaml")
	yaml := "baseline: main\ngroups:\n  - name: main\n    tags: [main]\n  - name: feature\n    tags: [feature]\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	_, stderr := execCompare(t, "groups", "--all", "--groups-file", path)
	if !strings.Contains(stderr, "group must match at least two reports") {
		t.Errorf("expected insufficient members error, got: %s", stderr)
	}
}

func TestGroups_RequiresPool(t *testing.T) {
	setupBackend(t)

	_, stderr := execCompare(t, "groups", "--group", "a:x")
	if !strings.Contains(stderr, "either a comparison id or --all") {
		t.Errorf("expected pool error, got: %s", stderr)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	db := setupBackend(t)
	seedPair(t, db)
	execCompare(t, "baseline", "1", "2")
	out := filepath.Join(t.TempDir(), "bundle.json")

	stdout, stderr := execCompare(t, "export", "1", "--out", out)
	if stderr != "" {
		t.Fatalf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, out) {
		t.Errorf("expected path in output, got: %s", stdout)
	}

	stdout, stderr = execCompare(t, "import", out)
	if stderr != "" {
		t.Fatalf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, "Imported comparison 2 with reports 3,4") {
		t.Errorf("unexpected output: %s", stdout)
	}

	cfg, err := openStore(t, db).GetComparisonDetail(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetComparisonDetail: %v", err)
	}
	if cfg.BaselineReportID == nil || *cfg.BaselineReportID != 4 {
		t.Errorf("imported baseline = %v, want 4", cfg.BaselineReportID)
	}
}

func TestDelete_KeepsReports(t *testing.T) {
	db := setupBackend(t)
	seedPair(t, db)

	stdout, _ := execCompare(t, "delete", "1")
	if !strings.Contains(stdout, "Deleted comparison 1") {
		t.Errorf("unexpected output: %s", stdout)
	}

	s := openStore(t, db)
	if _, err := s.GetComparisonDetail(context.Background(), 1); err == nil {
		t.Error("comparison should be gone")
	}
	reports, err := s.GetReports(context.Background())
	if err != nil || len(reports) != 2 {
		t.Errorf("reports after delete = %d, %v", len(reports), err)
	}
}

func TestParseGroupFlag(t *testing.T) {
	tests := []struct {
		in   string
		want domain.GroupDef
	}{
		{"main", domain.GroupDef{Name: "main", Mode: domain.MatchAny}},
		{"main:main, ci", domain.GroupDef{Name: "main", Mode: domain.MatchAny, Tags: []string{"main", "ci"}}},
		{"feat:ALL:feature,linux", domain.GroupDef{Name: "feat", Mode: domain.MatchAll, Tags: []string{"feature", "linux"}}},
	}
	for _, tt := range tests {
		got, err := parseGroupFlag(tt.in)
		if err != nil {
			t.Errorf("parseGroupFlag(%q): %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("parseGroupFlag(%q) (-want +got):\n%s", tt.in, diff)
		}
	}

	for _, bad := range []string{"", ":tags", "x:some:tag"} {
		if _, err := parseGroupFlag(bad); err == nil {
			t.Errorf("parseGroupFlag(%q) should fail", bad)
		}
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"nathanbeddoewebdev/perfsight/internal/analytics"
	"nathanbeddoewebdev/perfsight/internal/metrics"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
	"nathanbeddoewebdev/perfsight/internal/store"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*httptest.Server, *store.SQLiteStore) {
	t.Helper()
	s, err := store.OpenAt(filepath.Join(t.TempDir(), "perfsight.db"))
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	srv := httptest.NewServer(New(s, WithMetrics(metrics.New())).Handler())
	t.Cleanup(srv.Close)
	return srv, s
}

func testReport(title string, tags []string, cpu ...float64) *domain.Report {
	r := &domain.Report{
		Title: title,
		Tags:  tags,
		Meta:  &domain.Metadata{Collection: &domain.Collection{IntervalMs: 1000}},
	}
	for i, v := range cpu {
		r.Metrics = append(r.Metrics, domain.MetricBatch{
			Timestamp: t0.Add(time.Duration(i) * time.Second).Format(time.RFC3339Nano),
			Metrics: map[int]domain.MetricSample{
				10: {CPUOSUsage: domain.Some(v), MemoryPrivate: domain.Some(64 * analytics.BytesPerMiB)},
			},
		})
	}
	return r
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func createReport(t *testing.T, base string, r *domain.Report) int64 {
	t.Helper()
	resp := do(t, http.MethodPost, base+"/api/reports", r)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create report status = %d", resp.StatusCode)
	}
	return decode[IDResponse](t, resp).ID
}

func TestReports_CRUD(t *testing.T) {
	srv, _ := newTestServer(t)

	id := createReport(t, srv.URL, testReport("checkout", []string{"web"}, 10, 20))

	resp := do(t, http.MethodGet, srv.URL+"/api/reports", nil)
	list := decode[[]domain.ReportSummary](t, resp)
	if len(list) != 1 || list[0].ID != id || list[0].Title != "checkout" {
		t.Fatalf("list = %+v", list)
	}

	resp = do(t, http.MethodPut, fmt.Sprintf("%s/api/reports/%d/title", srv.URL, id), TitleRequest{Title: "renamed"})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("rename status = %d", resp.StatusCode)
	}
	resp = do(t, http.MethodPut, fmt.Sprintf("%s/api/reports/%d/tags", srv.URL, id), TagsRequest{Tags: []string{"nightly"}})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("tags status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, fmt.Sprintf("%s/api/reports/%d", srv.URL, id), nil)
	got := decode[domain.Report](t, resp)
	if got.Title != "renamed" || got.Analysis == nil {
		t.Errorf("detail = %q analysis=%v", got.Title, got.Analysis)
	}
	if diff := cmp.Diff([]string{"nightly"}, got.Tags); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}

	resp = do(t, http.MethodDelete, fmt.Sprintf("%s/api/reports/%d", srv.URL, id), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
}

func TestErrors_Mapped(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createReport(t, srv.URL, testReport("a", nil, 1))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing report", http.MethodGet, "/api/reports/404", nil, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/reports/abc", nil, http.StatusBadRequest},
		{"empty title", http.MethodPut, fmt.Sprintf("/api/reports/%d/title", id), TitleRequest{}, http.StatusBadRequest},
		{"one-report comparison", http.MethodPost, "/api/comparisons", domain.ComparisonConfig{ReportIDs: []int64{id}}, http.StatusBadRequest},
		{"bad top", http.MethodGet, "/api/comparisons/1/drivers?top=x", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			body := decode[ErrorResponse](t, resp)
			if body.Error == "" {
				t.Error("error body is empty")
			}
		})
	}
}

func TestComparisons_Analytics(t *testing.T) {
	srv, _ := newTestServer(t)
	a := createReport(t, srv.URL, testReport("a", []string{"main"}, 10, 20))
	b := createReport(t, srv.URL, testReport("b", []string{"main"}, 30, 40, 50))

	resp := do(t, http.MethodPost, srv.URL+"/api/comparisons", domain.ComparisonConfig{ReportIDs: []int64{a, b}, BaselineReportID: &a})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create comparison status = %d", resp.StatusCode)
	}
	cid := decode[IDResponse](t, resp).ID

	resp = do(t, http.MethodGet, fmt.Sprintf("%s/api/comparisons/%d/aligned", srv.URL, cid), nil)
	aligned := decode[analytics.Alignment](t, resp)
	if len(aligned.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(aligned.Rows))
	}
	if aligned.Rows[2].CPU[a] != nil {
		t.Errorf("row 2 of the short report = %v, want null", *aligned.Rows[2].CPU[a])
	}

	resp = do(t, http.MethodGet, fmt.Sprintf("%s/api/comparisons/%d/drivers?top=1", srv.URL, cid), nil)
	drivers := decode[[]analytics.DriverReport](t, resp)
	if len(drivers) != 1 || len(drivers[0].CPU) != 1 || drivers[0].CPU[0].Delta != 25 {
		t.Errorf("drivers = %+v", drivers)
	}

	resp = do(t, http.MethodPost, fmt.Sprintf("%s/api/comparisons/%d/groups", srv.URL, cid),
		GroupsRequest{Groups: []domain.GroupDef{{Name: "main", Tags: []string{"main"}}}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("groups status = %d", resp.StatusCode)
	}
	groups := decode[analytics.GroupComparison](t, resp)
	if len(groups.Groups) != 1 || groups.Groups[0].Fields[analytics.FieldCPUAvg].N != 2 {
		t.Errorf("groups = %+v", groups)
	}

	resp = do(t, http.MethodPost, fmt.Sprintf("%s/api/comparisons/%d/groups", srv.URL, cid),
		GroupsRequest{Groups: []domain.GroupDef{{Name: "x", Mode: "most"}}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid groups status = %d, want 400", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, http.MethodGet, srv.URL+"/api/tags", nil)

	resp := do(t, http.MethodGet, srv.URL+"/metrics", nil)
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `perfsight_http_requests_total{method="GET",route="/api/tags",status="200"} 1`) {
		t.Errorf("metrics output missing request counter:\n%s", buf.String())
	}
}

func TestFolders_Routes(t *testing.T) {
	srv, _ := newTestServer(t)
	a := createReport(t, srv.URL, testReport("a", nil, 1))
	b := createReport(t, srv.URL, testReport("b", nil, 2))
	c := createReport(t, srv.URL, testReport("c", nil, 3))

	resp := do(t, http.MethodPut, srv.URL+"/api/reports/folder", MoveReportsRequest{IDs: []int64{a, b}, Folder: "perf/web"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("move status = %d", resp.StatusCode)
	}
	if n := decode[CountResponse](t, resp).Count; n != 2 {
		t.Errorf("moved = %d, want 2", n)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/folders", CreateFolderRequest{Parent: "perf", Name: "api"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if p := decode[PathResponse](t, resp).Path; p != "perf/api" {
		t.Errorf("created path = %q", p)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/folders", nil)
	want := []domain.FolderInfo{{Path: "perf"}, {Path: "perf/api"}, {Path: "perf/web", ReportCount: 2}}
	if diff := cmp.Diff(want, decode[[]domain.FolderInfo](t, resp)); diff != "" {
		t.Errorf("folders (-want +got):\n%s", diff)
	}

	resp = do(t, http.MethodPut, srv.URL+"/api/folders/rename", RenameFolderRequest{Path: "perf/web", Name: "ui"})
	if p := decode[PathResponse](t, resp).Path; p != "perf/ui" {
		t.Errorf("renamed path = %q", p)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/folders/stats?path=perf", nil)
	stats := decode[domain.FolderStats](t, resp)
	if stats.TotalReports != 2 || stats.Subfolders != 2 {
		t.Errorf("stats = %+v", stats)
	}

	resp = do(t, http.MethodDelete, srv.URL+"/api/folders?path=perf/ui&strategy=delete-reports", nil)
	if diff := cmp.Diff(domain.FolderDeleteResult{Deleted: 2}, decode[domain.FolderDeleteResult](t, resp)); diff != "" {
		t.Errorf("delete result (-want +got):\n%s", diff)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/reports/delete", ReportIDsRequest{IDs: []int64{c}})
	if n := decode[CountResponse](t, resp).Count; n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}

func TestFolders_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"stats of missing folder", http.MethodGet, "/api/folders/stats?path=nope", nil, http.StatusNotFound},
		{"delete missing folder", http.MethodDelete, "/api/folders?path=nope", nil, http.StatusNotFound},
		{"unknown strategy", http.MethodDelete, "/api/folders?path=nope&strategy=shred", nil, http.StatusBadRequest},
		{"create without name", http.MethodPost, "/api/folders", CreateFolderRequest{Parent: "perf"}, http.StatusBadRequest},
		{"bulk delete without ids", http.MethodPost, "/api/reports/delete", ReportIDsRequest{}, http.StatusBadRequest},
		{"bulk move with bad id", http.MethodPut, "/api/reports/folder", MoveReportsRequest{IDs: []int64{0}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if body := decode[ErrorResponse](t, resp); body.Error == "" {
				t.Error("error body is empty")
			}
		})
	}
}

package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.ObserveLoad(time.Second, errors.New("boom"))
	r.StaleDropped("reload")
	r.AutosaveResult(nil)
	r.ObserveHTTP("GET", "/api/reports", 200, time.Millisecond)
	r.ObserveReport(3)
	if r.Registry() != nil {
		t.Error("nil recorder returned a registry")
	}
}

func TestRecorder_Counts(t *testing.T) {
	r := New()
	r.ObserveLoad(10*time.Millisecond, nil)
	r.ObserveLoad(10*time.Millisecond, errors.New("boom"))
	r.StaleDropped("reload")
	r.StaleDropped("reload")
	r.AutosaveResult(nil)
	r.AutosaveResult(errors.New("offline"))
	r.ObserveHTTP("GET", "/api/reports/:id", 404, time.Millisecond)

	if got := testutil.ToFloat64(r.loadFailures); got != 1 {
		t.Errorf("load failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.staleDropped.WithLabelValues("reload")); got != 2 {
		t.Errorf("stale dropped = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.autosaves.WithLabelValues("error")); got != 1 {
		t.Errorf("autosave errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/api/reports/:id", "404")); got != 1 {
		t.Errorf("http requests = %v, want 1", got)
	}
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.StaleDropped("drivers")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `perfsight_stale_responses_dropped_total{op="drivers"} 1`) {
		t.Errorf("exposition missing counter:\n%s", body)
	}
}

// Package metrics exposes perfsight's own Prometheus metrics.
//
// A nil *Recorder is valid and records nothing, so callers never need to
// guard their instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "perfsight"

// Recorder owns a private registry and the collectors registered in it.
type Recorder struct {
	registry *prometheus.Registry

	loadLatency   prometheus.Histogram
	loadFailures  prometheus.Counter
	staleDropped  *prometheus.CounterVec
	autosaves     *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	analyzeLength prometheus.Histogram
}

// New builds a Recorder with its own registry. Go runtime and process
// collectors are included.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}
	r.loadLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "comparison_load_seconds",
		Help:    "Time to fetch every report of a comparison.",
		Buckets: prometheus.DefBuckets,
	})
	r.loadFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "comparison_load_failures_total",
		Help: "Comparison loads that failed as a whole.",
	})
	r.staleDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "stale_responses_dropped_total",
		Help: "Responses discarded because a newer request superseded them.",
	}, []string{"op"})
	r.autosaves = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "autosave_total",
		Help: "Debounced comparison saves by result.",
	}, []string{"result"})
	r.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total",
		Help: "API requests by method, route and status.",
	}, []string{"method", "route", "status"})
	r.httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_seconds",
		Help:    "API request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	r.analyzeLength = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "report_batches",
		Help:    "Batch count of reports served with an analysis.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	r.registry.MustRegister(
		r.loadLatency, r.loadFailures, r.staleDropped, r.autosaves,
		r.httpRequests, r.httpLatency, r.analyzeLength,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry returns the underlying registry, or nil for a nil Recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveLoad records one comparison load.
func (r *Recorder) ObserveLoad(d time.Duration, err error) {
	if r == nil {
		return
	}
	r.loadLatency.Observe(d.Seconds())
	if err != nil {
		r.loadFailures.Inc()
	}
}

// StaleDropped counts a response dropped for op.
func (r *Recorder) StaleDropped(op string) {
	if r == nil {
		return
	}
	r.staleDropped.WithLabelValues(op).Inc()
}

// AutosaveResult counts one debounced save.
func (r *Recorder) AutosaveResult(err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.autosaves.WithLabelValues(result).Inc()
}

// ObserveHTTP records one API request.
func (r *Recorder) ObserveHTTP(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveReport records the size of a report served with an analysis.
func (r *Recorder) ObserveReport(batches int) {
	if r == nil {
		return
	}
	r.analyzeLength.Observe(float64(batches))
}

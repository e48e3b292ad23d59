// Package metrics exposes Prometheus collectors for the roster service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "albion_cta"

// Metrics bundles the service collectors. A nil *Metrics is valid and
// records nothing, which keeps handlers usable in tests.
type Metrics struct {
	registry *prometheus.Registry

	scans         *prometheus.CounterVec
	rowsExtracted prometheus.Counter
	scanLatency   prometheus.Histogram
	commits       *prometheus.CounterVec
	rowsCommitted prometheus.Counter
	openReviews   prometheus.GaugeFunc

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry. openReviews reports the
// number of review sessions in memory.
func New(openReviews func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "scans_total",
			Help: "Roster extractions by result.",
		}, []string{"result"}),
		rowsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_extracted_total",
			Help: "Roster rows returned by the model.",
		}),
		scanLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "scan_duration_seconds",
			Help:    "Time spent waiting for the model.",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 80},
		}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "commits_total",
			Help: "Roster commits by result.",
		}, []string{"result"}),
		rowsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_committed_total",
			Help: "Attendance rows written by successful commits.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if openReviews == nil {
		openReviews = func() float64 { return 0 }
	}
	m.openReviews = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Name: "open_reviews",
		Help: "Review sessions waiting for commit or cancel.",
	}, openReviews)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.scans, m.rowsExtracted, m.scanLatency,
		m.commits, m.rowsCommitted, m.openReviews,
		m.httpRequests, m.httpLatency,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveScan(result string, rows int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(result).Inc()
	m.rowsExtracted.Add(float64(rows))
	m.scanLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCommit(result string, rows int) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(result).Inc()
	m.rowsCommitted.Add(float64(rows))
}

func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

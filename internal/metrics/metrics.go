// Package metrics exposes the dashboard's Prometheus instruments on a
// private registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Recorder holds every instrument. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	loadFailures *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	tableRows    *prometheus.GaugeVec
	renders      *prometheus.CounterVec
}

// New creates a Recorder with Go and process collectors registered.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: registry,
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikeshare_table_cache_hits_total",
			Help: "Table lookups served from the cache.",
		}, []string{"table"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikeshare_table_cache_misses_total",
			Help: "Table lookups that loaded from the source.",
		}, []string{"table"}),
		loadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikeshare_table_load_failures_total",
			Help: "Table loads that failed.",
		}, []string{"table"}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bikeshare_table_load_duration_seconds",
			Help:    "Duration of table loads.",
			Buckets: prometheus.DefBuckets,
		}, []string{"table"}),
		tableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bikeshare_table_rows",
			Help: "Rows in the currently cached table.",
		}, []string{"table"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikeshare_dashboard_requests_total",
			Help: "Dashboard API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
	}

	registry.MustRegister(r.cacheHits)
	registry.MustRegister(r.cacheMisses)
	registry.MustRegister(r.loadFailures)
	registry.MustRegister(r.loadDuration)
	registry.MustRegister(r.tableRows)
	registry.MustRegister(r.renders)

	return r
}

// Registry returns the Prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) CacheHit(table string) {
	if r != nil {
		r.cacheHits.WithLabelValues(table).Inc()
	}
}

func (r *Recorder) CacheMiss(table string) {
	if r != nil {
		r.cacheMisses.WithLabelValues(table).Inc()
	}
}

// TableLoaded records a finished load. rows is ignored when err is set.
func (r *Recorder) TableLoaded(table string, took time.Duration, rows int, err error) {
	if r == nil {
		return
	}
	r.loadDuration.WithLabelValues(table).Observe(took.Seconds())
	if err != nil {
		r.loadFailures.WithLabelValues(table).Inc()
		return
	}
	r.tableRows.WithLabelValues(table).Set(float64(rows))
}

// Request counts an API request. outcome is "ok", "empty" or "error".
func (r *Recorder) Request(endpoint, outcome string) {
	if r != nil {
		r.renders.WithLabelValues(endpoint, outcome).Inc()
	}
}

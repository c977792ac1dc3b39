// Package metrics exposes the pipeline's Prometheus metrics.
// All methods are safe on a nil *Metrics so collaborators can run without metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes
const (
	OutcomeSuccess     = "success"
	OutcomeConfigError = "config_error"
	OutcomeFailed      = "failed"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram
	droppedNodes       *prometheus.CounterVec
	jobRetries         prometheus.Counter
	jobsDeadLettered   prometheus.Counter
	aggregatesTotal    *prometheus.CounterVec
	aggregateDuration  prometheus.Histogram
	tenantCacheSize    prometheus.Gauge
	tenantCacheEvicted prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses a fresh registry so tests can create many instances.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		gatherer: reg,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "survey_runs_total",
			Help: "Survey processing runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "survey_run_duration_seconds",
			Help:    "Histogram of survey processing run durations.",
			Buckets: prometheus.DefBuckets,
		}),
		droppedNodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kpi_nodes_dropped_total",
			Help: "KPI nodes or entries dropped after a scoring error, by source.",
		}, []string{"source"}),
		jobRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_job_retries_total",
			Help: "Survey jobs retried after a transient failure.",
		}),
		jobsDeadLettered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_jobs_failed_total",
			Help: "Survey jobs committed without success after the final attempt.",
		}),
		aggregatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segment_aggregates_total",
			Help: "Segment aggregate recomputations by write path.",
		}, []string{"path"}),
		aggregateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "segment_aggregate_duration_seconds",
			Help:    "Histogram of segment aggregate recomputation durations.",
			Buckets: prometheus.DefBuckets,
		}),
		tenantCacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tenant_cache_size",
			Help: "Tenant data-store handles currently cached.",
		}),
		tenantCacheEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenant_cache_evictions_total",
			Help: "Tenant data-store handles evicted and disconnected.",
		}),
	}

	reg.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.droppedNodes,
		m.jobRetries,
		m.jobsDeadLettered,
		m.aggregatesTotal,
		m.aggregateDuration,
		m.tenantCacheSize,
		m.tenantCacheEvicted,
	)

	return m
}

// Handler serves the registered metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) RunFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(d.Seconds())
}

func (m *Metrics) NodeDropped(source string) {
	if m == nil {
		return
	}
	m.droppedNodes.WithLabelValues(source).Inc()
}

func (m *Metrics) JobRetried() {
	if m == nil {
		return
	}
	m.jobRetries.Inc()
}

func (m *Metrics) JobFailed() {
	if m == nil {
		return
	}
	m.jobsDeadLettered.Inc()
}

// AggregateWritten records one recomputation; path is "insert" or "update".
func (m *Metrics) AggregateWritten(path string, d time.Duration) {
	if m == nil {
		return
	}
	m.aggregatesTotal.WithLabelValues(path).Inc()
	m.aggregateDuration.Observe(d.Seconds())
}

func (m *Metrics) TenantCacheSize(n int) {
	if m == nil {
		return
	}
	m.tenantCacheSize.Set(float64(n))
}

func (m *Metrics) TenantEvicted() {
	if m == nil {
		return
	}
	m.tenantCacheEvicted.Inc()
}

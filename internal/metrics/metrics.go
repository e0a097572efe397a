package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taichungmao-blip/soybean-monitor/internal/model"
)

// Metrics holds the Prometheus instruments for the monitor. All methods are
// nil-safe so that components can run without a registry wired in.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	fetchDuration   *prometheus.HistogramVec
	fetchErrors     *prometheus.CounterVec
	recommendations *prometheus.CounterVec
	qualifiers      *prometheus.CounterVec
	notifyFailures  prometheus.Counter
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// New creates and registers all instruments on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soymon_runs_total",
			Help: "Monitoring runs by result",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "soymon_run_duration_seconds",
			Help:    "Duration of one full monitoring run",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "soymon_fetch_duration_seconds",
			Help:    "Upstream fetch duration by source",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soymon_fetch_errors_total",
			Help: "Upstream fetch errors by source",
		}, []string{"source"}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soymon_recommendations_total",
			Help: "Recommendations emitted by category",
		}, []string{"category"}),
		qualifiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soymon_qualifier_total",
			Help: "Secondary qualifiers emitted",
		}, []string{"qualifier"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "soymon_notify_failures_total",
			Help: "Notification deliveries that exhausted all retries",
		}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soymon_cache_hits_total",
			Help: "Snapshot cache hits by kind",
		}, []string{"kind"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soymon_cache_misses_total",
			Help: "Snapshot cache misses by kind",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		m.runsTotal, m.runDuration, m.fetchDuration, m.fetchErrors,
		m.recommendations, m.qualifiers, m.notifyFailures, m.cacheHits, m.cacheMisses,
	)
	return m
}

// Handler exposes the registry for the admin server's /metrics route.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRun(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.runsTotal.WithLabelValues(result).Inc()
	m.runDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveFetch(source string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
	if err != nil {
		m.fetchErrors.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) CountRecommendation(rec model.Recommendation) {
	if m == nil {
		return
	}
	m.recommendations.WithLabelValues(string(rec.Category)).Inc()
	if rec.Qualifier != model.QualifierNone {
		m.qualifiers.WithLabelValues(string(rec.Qualifier)).Inc()
	}
}

func (m *Metrics) NotifyFailed() {
	if m == nil {
		return
	}
	m.notifyFailures.Inc()
}

func (m *Metrics) CacheHit(kind string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(kind).Inc()
}

func (m *Metrics) CacheMiss(kind string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(kind).Inc()
}

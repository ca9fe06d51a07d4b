package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the authorization engine.
type Metrics struct {
	registry *prometheus.Registry

	// Authorization decisions
	DecisionsTotal   *prometheus.CounterVec
	DecisionDuration *prometheus.HistogramVec

	// Hierarchy resolution
	ClosureLevels prometheus.Histogram
	ClosureSize   prometheus.Histogram

	// Capability cache
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// HTTP surface
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all instruments on the given registry.
// A nil registry gets a fresh private one.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crewplane_authz_decisions_total",
				Help: "Authorization decisions by module and outcome",
			},
			[]string{"module", "outcome"},
		),
		DecisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crewplane_authz_decision_duration_seconds",
				Help:    "Authorization decision latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ClosureLevels: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crewplane_hierarchy_closure_levels",
				Help:    "BFS levels traversed per hierarchy closure",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 20},
			},
		),
		ClosureSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crewplane_hierarchy_closure_size",
				Help:    "Subordinates discovered per hierarchy closure",
				Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crewplane_capability_cache_hits_total",
				Help: "Capability cache hits",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crewplane_capability_cache_misses_total",
				Help: "Capability cache misses",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crewplane_http_requests_total",
				Help: "HTTP requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crewplane_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	registry.MustRegister(
		m.DecisionsTotal,
		m.DecisionDuration,
		m.ClosureLevels,
		m.ClosureSize,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// Handler returns the Prometheus scrape handler for this metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Request Metrics
var (
	// HTTPRequestsTotal counts requests by method, route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks request latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks requests currently being served
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)
)

// Stats Metrics
var (
	// StatsCacheLookups counts snapshot cache lookups by report and result (hit/miss/error)
	StatsCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stats_cache_lookups_total",
			Help: "Stats snapshot cache lookups by report and result",
		},
		[]string{"report", "result"},
	)

	// StatsComputeDuration tracks how long a report takes to compute from the database
	StatsComputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stats_compute_duration_seconds",
			Help:    "Stats report computation duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"report"},
	)

	// SchedulerJobRuns counts scheduled job runs by job and status
	SchedulerJobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_job_runs_total",
			Help: "Scheduled job runs by job and status",
		},
		[]string{"job", "status"},
	)
)

// GeoNames Metrics
var (
	// GeoNamesRequestsTotal counts lookups by feature class and status
	GeoNamesRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geonames_requests_total",
			Help: "GeoNames lookups by kind and status",
		},
		[]string{"kind", "status"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

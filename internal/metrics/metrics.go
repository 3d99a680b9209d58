package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendRequestsTotal tracks backend calls per table and operation
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nkiru_backend_requests_total",
			Help: "Total number of backend requests",
		},
		[]string{"table", "op"},
	)

	// BackendErrorsTotal tracks classified backend failures
	BackendErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nkiru_backend_errors_total",
			Help: "Total number of backend errors by category",
		},
		[]string{"table", "category"},
	)

	// BackendLatency tracks backend request latency
	BackendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nkiru_backend_latency_seconds",
			Help:    "Backend request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table", "op"},
	)

	// RetryAttemptsTotal counts re-attempts (not first attempts)
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nkiru_retry_attempts_total",
			Help: "Total number of retried backend operations",
		},
		[]string{"op"},
	)

	// ContactSubmissionsTotal tracks contact form outcomes
	ContactSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nkiru_contact_submissions_total",
			Help: "Contact form submissions by result",
		},
		[]string{"result"},
	)

	// AnalyticsEventsTotal tracks analytics deliveries
	AnalyticsEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nkiru_analytics_events_total",
			Help: "Analytics events by delivery result",
		},
		[]string{"result"},
	)

	// ProjectCacheTotal tracks project cache lookups
	ProjectCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nkiru_project_cache_total",
			Help: "Project cache lookups by result",
		},
		[]string{"result"},
	)

	// DBConnectionPoolUsage reports open connections as a share of the pool
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nkiru_db_connection_pool_usage_percent",
			Help: "Open database connections as a percentage of the pool size",
		},
	)
)

/*-------------------------------------------------------------------------
 *
 * prometheus.go
 *    Prometheus metrics for the approval pipeline
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/metrics/prometheus.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	/* Request metrics */
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perch_agent_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "perch_agent_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	/* Approval queue metrics */
	enqueuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perch_agent_enqueues_total",
			Help: "Total number of enqueue attempts",
		},
		[]string{"kind", "outcome"},
	)

	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perch_agent_decisions_total",
			Help: "Total number of approval decisions handled",
		},
		[]string{"kind", "verdict"},
	)

	pendingApprovals = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "perch_agent_pending_approvals",
			Help: "Number of approvals currently pending review",
		},
	)

	/* Poll metrics */
	pollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perch_agent_poll_cycles_total",
			Help: "Total number of decision poll cycles",
		},
		[]string{"status"},
	)

	pollCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "perch_agent_poll_cycle_duration_seconds",
			Help:    "Decision poll cycle duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	/* Execution metrics */
	executionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perch_agent_executions_total",
			Help: "Total number of approved action executions",
		},
		[]string{"kind", "status"},
	)

	executionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "perch_agent_execution_duration_seconds",
			Help:    "Approved action execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	/* Platform client metrics */
	platformRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perch_agent_platform_requests_total",
			Help: "Total number of requests sent through the platform queue",
		},
		[]string{"operation", "status"},
	)

	platformRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "perch_agent_platform_retries_total",
			Help: "Total number of platform request retries",
		},
	)

	/* Candidate generator metrics */
	candidatesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perch_agent_candidates_generated_total",
			Help: "Total number of candidate actions produced by generators",
		},
		[]string{"generator", "kind"},
	)

	/* Database connection pool metrics */
	dbPoolOpenConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "perch_agent_db_pool_open_connections",
			Help: "Number of open database connections",
		},
		[]string{"database"},
	)

	dbPoolIdleConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "perch_agent_db_pool_idle_connections",
			Help: "Number of idle database connections",
		},
		[]string{"database"},
	)

	dbPoolInUseConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "perch_agent_db_pool_in_use_connections",
			Help: "Number of database connections in use",
		},
		[]string{"database"},
	)
)

/* RecordHTTPRequest records an HTTP request */
func RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	/* Convert status code to status class for better PromQL queries */
	statusClass := "unknown"
	if status >= 200 && status < 300 {
		statusClass = "2xx"
	} else if status >= 300 && status < 400 {
		statusClass = "3xx"
	} else if status >= 400 && status < 500 {
		statusClass = "4xx"
	} else if status >= 500 {
		statusClass = "5xx"
	}

	httpRequestsTotal.WithLabelValues(method, endpoint, statusClass).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

/* RecordEnqueue records an enqueue attempt */
func RecordEnqueue(kind, outcome string) {
	enqueuesTotal.WithLabelValues(kind, outcome).Inc()
}

/* RecordDecision records a handled approval decision */
func RecordDecision(kind, verdict string) {
	decisionsTotal.WithLabelValues(kind, verdict).Inc()
}

/* SetPendingApprovals sets the pending approvals gauge from a store
 * count, so the gauge stays truthful across restarts and decisions
 * written to the store directly */
func SetPendingApprovals(count int) {
	pendingApprovals.Set(float64(count))
}

/* RecordPollCycle records a decision poll cycle */
func RecordPollCycle(status string, duration time.Duration) {
	pollCyclesTotal.WithLabelValues(status).Inc()
	pollCycleDuration.Observe(duration.Seconds())
}

/* RecordExecution records an approved action execution */
func RecordExecution(kind, status string, duration time.Duration) {
	executionsTotal.WithLabelValues(kind, status).Inc()
	executionDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

/* RecordPlatformRequest records a platform request */
func RecordPlatformRequest(operation, status string) {
	platformRequestsTotal.WithLabelValues(operation, status).Inc()
}

/* RecordPlatformRetry records a platform request retry */
func RecordPlatformRetry() {
	platformRetriesTotal.Inc()
}

/* RecordCandidateGenerated records a candidate produced by a generator */
func RecordCandidateGenerated(generator, kind string) {
	candidatesGeneratedTotal.WithLabelValues(generator, kind).Inc()
}

/* RecordDBPoolStats records database connection pool statistics */
func RecordDBPoolStats(database string, openConns, idleConns, inUse int) {
	dbPoolOpenConns.WithLabelValues(database).Set(float64(openConns))
	dbPoolIdleConns.WithLabelValues(database).Set(float64(idleConns))
	dbPoolInUseConns.WithLabelValues(database).Set(float64(inUse))
}

/* Handler returns the Prometheus metrics handler */
func Handler() http.Handler {
	return promhttp.Handler()
}

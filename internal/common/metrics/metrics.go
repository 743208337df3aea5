// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// AI gateway collectors. outcome is "success" or a gateway error code.
var (
	AIGatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_gateway_requests_total",
			Help: "AI gateway requests by type and outcome",
		},
		[]string{"request_type", "outcome"},
	)

	AIGatewayCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_gateway_cache_hits_total",
			Help: "AI gateway responses served from cache",
		},
		[]string{"request_type"},
	)

	AIGatewayRateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_gateway_rate_limited_total",
			Help: "AI gateway requests rejected by a rate limiter",
		},
		[]string{"scope"},
	)
)

var (
	ConflictSeverity = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkops_conflict_severity_total",
			Help: "Conflict analyses by overall severity",
		},
		[]string{"severity"},
	)

	ImpactScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bulkops_impact_score",
			Help:    "Overall family impact score of analyzed operations",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)

// ObserveJob records the outcome of one worker job. An empty errorCode
// counts as completed.
func ObserveJob(taskType, errorCode string, seconds float64) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(seconds)
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}

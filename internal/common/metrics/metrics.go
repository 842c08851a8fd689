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

// Matching metrics. source is "job" or "http".
var (
	RankingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investor_match_rankings_total",
			Help: "Number of ranking runs",
		},
		[]string{"source"},
	)

	CandidatesEvaluated = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "investor_match_candidates_evaluated",
			Help:    "Candidate pool size per ranking run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	EligibleRatio = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "investor_match_eligible_ratio",
			Help:    "Share of the pool that passed the eligibility filter",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	TopScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "investor_match_top_score",
			Help:    "Best match score per ranking run",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investor_match_cache_lookups_total",
			Help: "Profile and pool cache lookups by outcome",
		},
		[]string{"kind", "outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investor_match_http_requests_total",
			Help: "HTTP API requests by route and status",
		},
		[]string{"route", "status"},
	)
)

// ObserveRanking records one ranking run.
func ObserveRanking(source string, poolSize, eligible, topScore int) {
	RankingsTotal.WithLabelValues(source).Inc()
	CandidatesEvaluated.Observe(float64(poolSize))
	if poolSize > 0 {
		EligibleRatio.Observe(float64(eligible) / float64(poolSize))
	}
	if eligible > 0 {
		TopScore.Observe(float64(topScore))
	}
}

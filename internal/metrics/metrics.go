package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedback_analysis_duration_seconds",
			Help:    "Time spent composing an insight report",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 15, 30, 60},
		},
		[]string{"subject"},
	)

	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_analyses_total",
			Help: "Insight reports composed, by subject kind and insight source",
		},
		[]string{"subject", "source"},
	)

	InsightFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_insight_fallbacks_total",
			Help: "Reports that used the local fallback instead of the text insight service",
		},
		[]string{"reason"},
	)

	PolarizationLevels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_polarization_level_total",
			Help: "Polarization levels observed in composed reports",
		},
		[]string{"level"},
	)

	FeedbackSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_submissions_total",
			Help: "Feedback submissions by outcome",
		},
		[]string{"result"},
	)

	ReportCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_report_cache_requests_total",
			Help: "Report cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	GRPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_requests_total",
			Help: "gRPC requests by method and status code",
		},
		[]string{"method", "code"},
	)

	GRPCRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_request_duration_seconds",
			Help:    "gRPC request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func RecordAnalysis(subject, source string, duration time.Duration) {
	AnalysesTotal.WithLabelValues(subject, source).Inc()
	AnalysisDuration.WithLabelValues(subject).Observe(duration.Seconds())
}

func RecordInsightFallback(reason string) {
	InsightFallbacks.WithLabelValues(reason).Inc()
}

func RecordPolarization(level string) {
	PolarizationLevels.WithLabelValues(level).Inc()
}

func RecordSubmission(result string) {
	FeedbackSubmissions.WithLabelValues(result).Inc()
}

func RecordCacheLookup(result string) {
	ReportCacheRequests.WithLabelValues(result).Inc()
}

func RecordGRPCRequest(method, code string, duration time.Duration) {
	GRPCRequestsTotal.WithLabelValues(method, code).Inc()
	GRPCRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// SetCircuitBreakerState records 0 for closed, 1 for half-open, 2 for open.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Split pipeline metrics
	SplitsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeflow_splits_started_total",
			Help: "Total number of split operations started",
		},
	)

	SplitsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeflow_splits_completed_total",
			Help: "Total number of split operations completed",
		},
		[]string{"strategy", "status"},
	)

	SplitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codeflow_split_duration_seconds",
			Help:    "Split operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	ComponentsWritten = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codeflow_components_per_split",
			Help:    "Number of components written per successful split",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	OversizedComponents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeflow_oversized_components_total",
			Help: "Components emitted whole despite exceeding size limits",
		},
	)

	Rollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeflow_rollbacks_total",
			Help: "Total number of split rollbacks",
		},
		[]string{"cause"},
	)

	ValidationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeflow_validation_failures_total",
			Help: "Components that failed post-split syntax validation",
		},
	)

	// Analysis metrics
	AnalysisCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeflow_analysis_cache_hits_total",
			Help: "Total number of complexity report cache hits",
		},
	)

	AnalysisCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeflow_analysis_cache_misses_total",
			Help: "Total number of complexity report cache misses",
		},
	)

	// Decision metrics
	DecisionsMade = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeflow_decisions_total",
			Help: "Total number of split decisions",
		},
		[]string{"strategy", "should_split"},
	)

	DecisionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codeflow_decision_latency_seconds",
			Help:    "Split decision latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	AIFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeflow_ai_fallbacks_total",
			Help: "AI recommendations discarded in favor of the static signal",
		},
		[]string{"reason"},
	)
)

// RecordAnalysisCache records a complexity cache lookup outcome.
func RecordAnalysisCache(hit bool) {
	if hit {
		AnalysisCacheHits.Inc()
		return
	}
	AnalysisCacheMisses.Inc()
}

// RecordDecision records a finalized split decision.
func RecordDecision(strategy string, shouldSplit bool, durationSeconds float64) {
	split := "false"
	if shouldSplit {
		split = "true"
	}
	DecisionsMade.WithLabelValues(strategy, split).Inc()
	DecisionLatency.Observe(durationSeconds)
}

// RecordSplit records a completed split operation. All recording is
// fire-and-forget and never affects pipeline control flow.
func RecordSplit(strategy, status string, durationSeconds float64, components int) {
	SplitsCompleted.WithLabelValues(strategy, status).Inc()
	SplitDuration.WithLabelValues(strategy).Observe(durationSeconds)
	if components > 0 {
		ComponentsWritten.Observe(float64(components))
	}
}

// RecordRollback records a rollback and its cause.
func RecordRollback(cause string) {
	Rollbacks.WithLabelValues(cause).Inc()
}

// RecordAIFallback records a discarded AI recommendation.
func RecordAIFallback(reason string) {
	AIFallbacks.WithLabelValues(reason).Inc()
}

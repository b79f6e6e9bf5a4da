package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	UrgencyScore       prometheus.Histogram
	ImportanceScore    prometheus.Histogram
	RuleMatchesTotal   *prometheus.CounterVec
	RankBatchSize      prometheus.Histogram
	RankDuration       prometheus.Histogram
	SubmitsTotal       *prometheus.CounterVec
	RescoresTotal      *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	scoreBuckets := prometheus.LinearBuckets(0, 0.1, 11) // 0 .. 1

	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_evaluations_total",
			Help: "Total thread evaluations by tier and suggested action.",
		}, []string{"tier", "action"}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_evaluation_duration_seconds",
			Help:    "Duration of a single thread evaluation in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12), // 50us .. ~100ms
		}),
		UrgencyScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_urgency_score",
			Help:    "Distribution of urgency scores.",
			Buckets: scoreBuckets,
		}),
		ImportanceScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_importance_score",
			Help:    "Distribution of importance scores.",
			Buckets: scoreBuckets,
		}),
		RuleMatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_rule_wins_total",
			Help: "Total times each classification rule produced the suggestion.",
		}, []string{"rule"}),
		RankBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_rank_batch_size",
			Help:    "Threads per rank request.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 11), // 1 .. 1024
		}),
		RankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_rank_duration_seconds",
			Help:    "Duration of rank requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		}),
		SubmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_submits_total",
			Help: "Total thread submissions by result.",
		}, []string{"result"}),
		RescoresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_rescores_total",
			Help: "Total rescores by previous and new tier.",
		}, []string{"from", "to"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_notifications_total",
			Help: "Total notifications by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.EvaluationsTotal,
		m.EvaluationDuration,
		m.UrgencyScore,
		m.ImportanceScore,
		m.RuleMatchesTotal,
		m.RankBatchSize,
		m.RankDuration,
		m.SubmitsTotal,
		m.RescoresTotal,
		m.NotificationsTotal,
	)

	return m
}

// Hooks returns an EngineHooks that records the corresponding metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnComplete: func(e *CompleteEvent) {
			m.EvaluationsTotal.WithLabelValues(string(e.Tier), string(e.Action)).Inc()
			m.EvaluationDuration.Observe(e.Duration)
			m.UrgencyScore.Observe(e.Urgency)
			m.ImportanceScore.Observe(e.Importance)
			m.RuleMatchesTotal.WithLabelValues(e.Rule).Inc()
		},
		OnRank: func(size int, duration float64) {
			m.RankBatchSize.Observe(float64(size))
			m.RankDuration.Observe(duration)
		},
	}
}

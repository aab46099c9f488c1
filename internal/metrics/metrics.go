package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quizspark_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	AttemptsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizspark_attempts_scored_total",
			Help: "Total number of scored quiz attempts",
		},
		[]string{"outcome"},
	)

	AttemptScorePercent = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quizspark_attempt_score_percent",
			Help:    "Distribution of attempt scores as a percentage",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	RetestResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizspark_retest_resolutions_total",
			Help: "Total number of resolved retest requests",
		},
		[]string{"status"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizspark_events_published_total",
			Help: "Domain events published to the message broker",
		},
		[]string{"type", "result"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizspark_events_consumed_total",
			Help: "Domain events handled by the worker",
		},
		[]string{"type", "result"},
	)
)

package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Consumer-side series are labelled by topic and consumer group; producer-side
// series by topic only, since every service publishes from a single writer.
var (
	EventsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_events_fetched_total",
			Help: "Events fetched from the broker, before handling",
		},
		[]string{"topic", "group"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_events_consumed_total",
			Help: "Events handled successfully and committed",
		},
		[]string{"topic", "group"},
	)

	EventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_events_failed_total",
			Help: "Events that exhausted handler retries",
		},
		[]string{"topic", "group"},
	)

	EventsDuplicate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_events_duplicate_total",
			Help: "Redelivered events skipped by the idempotency guard",
		},
		[]string{"topic", "group"},
	)

	EventsDeadLettered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_events_dead_lettered_total",
			Help: "Events forwarded to the dead-letter topic",
		},
		[]string{"topic", "group"},
	)

	HandleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_handle_duration_seconds",
			Help:    "Wall time spent in the event handler",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic", "group"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_events_published_total",
			Help: "Events written to the broker",
		},
		[]string{"topic"},
	)

	PublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_publish_errors_total",
			Help: "Failed publish attempts",
		},
		[]string{"topic"},
	)

	PublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_publish_duration_seconds",
			Help:    "Wall time spent writing to the broker",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)

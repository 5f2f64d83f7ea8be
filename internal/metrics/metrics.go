package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline counters. Registered on the default registry and served by the
// /metrics endpoint the observability bootstrap exposes.
var (
	ReviewsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replypilot_reviews_ingested_total",
		Help: "Reviews stored by the ingestion coordinator, by platform.",
	}, []string{"platform"})

	ReviewsDeduplicated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replypilot_reviews_deduplicated_total",
		Help: "Raw reviews skipped because they were already stored.",
	}, []string{"platform"})

	SourceFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replypilot_source_fetch_errors_total",
		Help: "Review source fetch failures, by platform.",
	}, []string{"platform"})

	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "replypilot_notifications_sent_total",
		Help: "Owner alert SMS messages sent successfully.",
	})

	NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "replypilot_notifications_failed_total",
		Help: "Owner alert SMS messages that failed to send.",
	})

	NotificationRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replypilot_notification_retries_total",
		Help: "Retry scheduler attempt outcomes.",
	}, []string{"outcome"})

	CommandsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replypilot_commands_processed_total",
		Help: "Inbound SMS commands processed, by command.",
	}, []string{"command"})

	ResponsesPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replypilot_responses_posted_total",
		Help: "Approved replies posted back to platforms, by platform.",
	}, []string{"platform"})

	ResponsePostFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replypilot_response_post_failures_total",
		Help: "Reply posting failures, by platform.",
	}, []string{"platform"})

	PollCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "replypilot_poll_cycle_duration_seconds",
		Help:    "Duration of one full ingestion poll cycle.",
		Buckets: prometheus.DefBuckets,
	})
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Fanout metrics
	FanoutEventsComputed  *prometheus.CounterVec
	FanoutRecipients      prometheus.Histogram
	NotificationsInserted prometheus.Counter
	NotificationsFailed   prometheus.Counter

	// Follow-up sweep metrics
	SweepsStarted   prometheus.Counter
	SweepsSkipped   prometheus.Counter
	SweepDuration   prometheus.Histogram
	SweepLeadErrors prometheus.Counter
	TriggersFired   *prometheus.CounterVec

	// Outbox metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxEventsDropped     prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		FanoutEventsComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fanout_events_computed_total",
			Help:      "Total number of fanout computations by event kind",
		}, []string{"event_kind"}),
		FanoutRecipients: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fanout_recipients_per_event",
			Help:      "Number of recipients produced per fanout computation",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25, 50},
		}),
		NotificationsInserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_inserted_total",
			Help:      "Total number of notification records persisted",
		}),
		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Total number of notification batch inserts that failed",
		}),
		SweepsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "followup_sweeps_started_total",
			Help:      "Total number of follow-up sweeps started",
		}),
		SweepsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "followup_sweeps_skipped_total",
			Help:      "Total number of sweeps skipped because the previous run was still in progress",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "followup_sweep_duration_seconds",
			Help:      "Time spent scanning leads for follow-up triggers",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		SweepLeadErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "followup_sweep_lead_errors_total",
			Help:      "Total number of leads skipped during a sweep due to errors",
		}),
		TriggersFired: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "followup_triggers_fired_total",
			Help:      "Total number of follow-up triggers fired by kind",
		}, []string{"kind"}),
		OutboxEventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_dropped_total",
			Help:      "Total number of events lost before reaching the outbox",
		}),
		OutboxProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion counters, partitioned by event category.

var (
	EventsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mirror",
		Subsystem: "ingest",
		Name:      "events_fetched_total",
		Help:      "Upstream events returned by the fetcher",
	}, []string{"category"})

	EventsPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mirror",
		Subsystem: "ingest",
		Name:      "events_persisted_total",
		Help:      "Events written to the store",
	}, []string{"category"})

	EventsDuplicate = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mirror",
		Subsystem: "ingest",
		Name:      "events_duplicate_total",
		Help:      "Events skipped because their dedup key was already stored",
	}, []string{"category"})

	EventErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mirror",
		Subsystem: "ingest",
		Name:      "event_errors_total",
		Help:      "Per-event decode or insert failures",
	}, []string{"category", "stage"})

	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mirror",
		Subsystem: "ingest",
		Name:      "fetch_errors_total",
		Help:      "Fetches that ended early on an upstream failure",
	}, []string{"category"})

	PollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mirror",
		Subsystem: "ingest",
		Name:      "poll_duration_seconds",
		Help:      "Duration of one poll tick across all categories",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	PollsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mirror",
		Subsystem: "ingest",
		Name:      "polls_skipped_total",
		Help:      "Poll ticks dropped because the previous poll was still running",
	})

	Watermark = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mirror",
		Subsystem: "ingest",
		Name:      "watermark_block",
		Help:      "Highest block whose events are durably persisted",
	})

	SnapshotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mirror",
		Subsystem: "snapshot",
		Name:      "builds_total",
		Help:      "Snapshot builds by outcome",
	}, []string{"outcome"})

	AlertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mirror",
		Subsystem: "alert",
		Name:      "raised_total",
		Help:      "System alerts raised, by severity",
	}, []string{"severity"})

	AlertsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mirror",
		Subsystem: "alert",
		Name:      "suppressed_total",
		Help:      "Alerts suppressed by cooldown",
	})
)

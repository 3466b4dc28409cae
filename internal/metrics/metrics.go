package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Metadata cache
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vent_cache_lookups_total",
		Help: "Metadata cache lookups by source kind and result.",
	}, []string{"kind", "result"}) // result: hit, miss, error

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vent_metadata_fetch_duration_seconds",
		Help:    "Duration of uncached metadata fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// Launch lifecycle
	Launches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vent_launches_total",
		Help: "Launch attempts by outcome.",
	}, []string{"outcome"}) // outcome: exited, terminated, timeout, error

	PollAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vent_launch_poll_attempts",
		Help:    "Process-table queries needed before the game process appeared.",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60},
	})

	SignalsForwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vent_signals_forwarded_total",
		Help: "Termination signals forwarded to running games.",
	})

	SessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vent_session_duration_seconds",
		Help:    "Time between the game process appearing and exiting.",
		Buckets: []float64{30, 60, 300, 600, 1800, 3600, 7200},
	})

	// Assets
	AssetsDownloaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vent_assets_total",
		Help: "Asset downloads by status.",
	}, []string{"status"}) // status: fetched, cached, missing, failed
)

// RecordFetchDuration records the time taken for one metadata fetch.
func RecordFetchDuration(kind string, start time.Time) {
	FetchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// WriteTextfile dumps the default registry in the node_exporter textfile
// collector format. The launcher is short-lived so nothing scrapes it directly.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

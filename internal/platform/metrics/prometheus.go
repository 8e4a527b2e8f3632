// Package metrics provides Prometheus metrics for the build step and the site server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Feed fetch outcomes.
const (
	FeedOutcomeOK          = "ok"
	FeedOutcomeUnset       = "unset"
	FeedOutcomeHTTPStatus  = "http_status"
	FeedOutcomeNetwork     = "network_error"
	FeedOutcomeReadFailure = "read_error"
	FeedOutcomeTooLarge    = "too_large"
)

var (
	FeedFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microsite_feed_fetches_total",
			Help: "Total number of CSV feed fetch attempts by outcome",
		},
		[]string{"feed", "outcome"},
	)

	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "microsite_feed_fetch_duration_seconds",
			Help:    "Time taken to download and parse a CSV feed",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"feed"},
	)

	FeedRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "microsite_feed_rows",
			Help: "Rows parsed from the most recent fetch of a feed",
		},
		[]string{"feed"},
	)

	ManifestFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "microsite_manifest_files",
			Help: "Files discovered per manifest category",
		},
		[]string{"category"},
	)

	ArtifactPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microsite_artifact_publish_total",
			Help: "Artifact uploads by provider and status",
		},
		[]string{"provider", "artifact", "status"},
	)

	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microsite_brand_resolutions_total",
			Help: "Brand resolutions by the precedence step that produced them",
		},
		[]string{"source"},
	)

	ThemeMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "microsite_theme_misses_total",
			Help: "Resolved brands whose theme index matched no theme row",
		},
	)
)

// RecordFeedFetch records the outcome, latency, and row count of a single feed fetch.
func RecordFeedFetch(feed, outcome string, duration time.Duration, rows int) {
	FeedFetchesTotal.WithLabelValues(feed, outcome).Inc()
	FeedFetchDuration.WithLabelValues(feed).Observe(duration.Seconds())
	FeedRows.WithLabelValues(feed).Set(float64(rows))
}

// RecordPublish records one artifact upload.
func RecordPublish(provider, artifact string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ArtifactPublishTotal.WithLabelValues(provider, artifact, status).Inc()
}

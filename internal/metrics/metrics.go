// Package metrics exposes Prometheus collectors for the acquisition pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	crawlRunsTotal         *prometheus.CounterVec
	crawlDurationSeconds   *prometheus.HistogramVec
	fetchRequestsTotal     *prometheus.CounterVec
	fetchBytesTotal        *prometheus.CounterVec
	rowsNormalizedTotal    *prometheus.CounterVec
	rowErrorsTotal         *prometheus.CounterVec
	duplicateKeysTotal     *prometheus.CounterVec
	artifactsRetainedTotal *prometheus.CounterVec

	once sync.Once
)

// Init registers the Prometheus collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		crawlRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthcare_crawl_runs_total",
				Help: "Total crawl runs, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)
		crawlDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "healthcare_crawl_duration_seconds",
				Help:    "Histogram of crawl run durations, labeled by source.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"source"},
		)
		fetchRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthcare_fetch_requests_total",
				Help: "Total HTTP requests issued, labeled by source and status class.",
			},
			[]string{"source", "status"},
		)
		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthcare_fetch_bytes_total",
				Help: "Total bytes downloaded, labeled by source.",
			},
			[]string{"source"},
		)
		rowsNormalizedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthcare_rows_normalized_total",
				Help: "Total rows normalized into canonical records, labeled by source and kind.",
			},
			[]string{"source", "kind"},
		)
		rowErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthcare_row_errors_total",
				Help: "Total rows rejected during normalization, labeled by source.",
			},
			[]string{"source"},
		)
		duplicateKeysTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthcare_duplicate_keys_total",
				Help: "Total duplicate unique keys observed within a batch, labeled by source.",
			},
			[]string{"source"},
		)
		artifactsRetainedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthcare_artifacts_retained_total",
				Help: "Total raw artifacts retained for object storage, labeled by source.",
			},
			[]string{"source"},
		)
	})
}

// ObserveCrawl records one finished crawl run.
func ObserveCrawl(source, outcome string, d time.Duration) {
	if crawlRunsTotal == nil {
		return
	}
	crawlRunsTotal.WithLabelValues(source, outcome).Inc()
	crawlDurationSeconds.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveFetch records one HTTP round trip.
func ObserveFetch(source, status string, bytes int) {
	if fetchRequestsTotal == nil {
		return
	}
	fetchRequestsTotal.WithLabelValues(source, status).Inc()
	fetchBytesTotal.WithLabelValues(source).Add(float64(bytes))
}

// ObserveNormalization records per-batch normalization counts.
func ObserveNormalization(source, kind string, rows, rowErrors, duplicates int) {
	if rowsNormalizedTotal == nil {
		return
	}
	rowsNormalizedTotal.WithLabelValues(source, kind).Add(float64(rows))
	rowErrorsTotal.WithLabelValues(source).Add(float64(rowErrors))
	duplicateKeysTotal.WithLabelValues(source).Add(float64(duplicates))
}

// ObserveArtifact records one retained artifact.
func ObserveArtifact(source string) {
	if artifactsRetainedTotal == nil {
		return
	}
	artifactsRetainedTotal.WithLabelValues(source).Inc()
}

// Package metrics provides Prometheus metrics for the clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal tracks consolidation runs by status
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of consolidation runs by status",
		},
		[]string{"status"},
	)

	// StageDuration tracks the duration of each pipeline stage in seconds
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	// RecordsRead tracks input records read per file
	RecordsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "ingest",
			Name:      "records_total",
			Help:      "Total number of input records read by source table",
		},
		[]string{"table"},
	)

	// AccidentsConsolidated tracks consolidated accident rows
	AccidentsConsolidated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "pipeline",
			Name:      "accidents_total",
			Help:      "Total number of consolidated accident rows produced",
		},
	)

	// DuplicateLocations tracks location rows dropped by the first-wins policy
	DuplicateLocations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "join",
			Name:      "duplicate_locations_total",
			Help:      "Total number of duplicate location rows skipped",
		},
	)

	// SinkErrors tracks failures writing to external sinks
	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "sink",
			Name:      "errors_total",
			Help:      "Total number of sink failures by sink",
		},
		[]string{"sink"},
	)

	// CacheRequests tracks summary cache lookups by result
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Total number of summary cache lookups by result",
		},
		[]string{"result"},
	)

	// HTTPRequestDuration tracks API latency by route and status
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

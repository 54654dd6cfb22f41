// Package metrics provides Prometheus metrics for the fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal tracks inbound API requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks inbound API request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// EntrySavesTotal tracks save attempts by outcome (saved, invalid, vetoed, faked, failed)
	EntrySavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "entries",
			Name:      "saves_total",
			Help:      "Total number of entry saves by outcome",
		},
		[]string{"form", "outcome"},
	)

	// EntrySaveDuration tracks the transactional part of a save
	EntrySaveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "entries",
			Name:      "save_duration_seconds",
			Help:      "Duration of entry persistence in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"form"},
	)

	// EntryForwardsTotal tracks webhook forwards by result
	EntryForwardsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "entries",
			Name:      "forwards_total",
			Help:      "Total number of entry forwards by result",
		},
		[]string{"form", "result"},
	)

	// AssetUploadsTotal tracks uploaded files by result
	AssetUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "assets",
			Name:      "uploads_total",
			Help:      "Total number of uploaded files by result",
		},
		[]string{"result"},
	)

	// AssetMovesTotal tracks assets relocated after an entry save
	AssetMovesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "assets",
			Name:      "moves_total",
			Help:      "Total number of asset moves by result",
		},
		[]string{"result"},
	)

	// EventsPublishedTotal tracks Kafka publishes
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "events_published_total",
			Help:      "Total number of entry events published to Kafka",
		},
		[]string{"event_type", "status"},
	)
)

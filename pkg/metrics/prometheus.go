// Package metrics provides Prometheus metrics for the Rift gamification service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the Rift service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Core business metrics - what really matters for a gamification layer
	eventsIngested  *prometheus.CounterVec
	eventsDuplicate prometheus.Counter
	goldAwarded     prometheus.Counter
	xpAwarded       prometheus.Counter

	// Business quality metrics - error tracking by kind
	ingestErrors *prometheus.CounterVec

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Store metrics
	storeQueryLatency prometheus.Histogram
	eventsTotal       prometheus.Gauge

	// Derived-state gauges refreshed by the service updater
	currentLevel   prometheus.Gauge
	weeklyMeetings prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rift",
		subsystem:        "gamification",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.eventsIngested = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_ingested_total",
			Help:      "Total number of events ingested by source and event type",
		},
		[]string{"source", "event_type"},
	)

	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Total number of duplicate events suppressed within the dedupe window",
	})

	m.goldAwarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gold_awarded_total",
		Help:      "Total gold awarded across all ingested events",
	})

	m.xpAwarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "xp_awarded_total",
		Help:      "Total XP awarded across all ingested events",
	})

	m.ingestErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "ingest_errors_total",
			Help:      "Total ingestion failures by error kind",
		},
		[]string{"kind"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Histogram of event store query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.eventsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_total",
		Help:      "Total number of events currently in the store",
	})

	m.currentLevel = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "current_level",
		Help:      "Current level derived from lifetime XP",
	})

	m.weeklyMeetings = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "weekly_meetings",
		Help:      "Meetings booked since the start of the current week",
	})
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RecordEventIngested counts one persisted event and its awarded rewards.
func RecordEventIngested(source, eventType string, gold, xp int) {
	globalManager.eventsIngested.WithLabelValues(source, eventType).Inc()
	globalManager.goldAwarded.Add(float64(gold))
	globalManager.xpAwarded.Add(float64(xp))
}

// RecordDuplicateEvent counts one suppressed duplicate.
func RecordDuplicateEvent() {
	globalManager.eventsDuplicate.Inc()
}

// RecordIngestError counts one ingestion failure by kind.
func RecordIngestError(kind string) {
	globalManager.ingestErrors.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records the duration of one HTTP request.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordStoreQueryDuration records one event store query duration.
func RecordStoreQueryDuration(durationMs float64) {
	globalManager.storeQueryLatency.Observe(durationMs)
}

// UpdateTotalEvents sets the store size gauge.
func UpdateTotalEvents(n int64) {
	globalManager.eventsTotal.Set(float64(n))
}

// UpdateCurrentLevel sets the derived level gauge.
func UpdateCurrentLevel(level int) {
	globalManager.currentLevel.Set(float64(level))
}

// UpdateWeeklyMeetings sets the weekly meeting count gauge.
func UpdateWeeklyMeetings(n int) {
	globalManager.weeklyMeetings.Set(float64(n))
}

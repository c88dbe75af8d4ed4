// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Adapter metrics

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boonscroll_fetch_duration_seconds",
			Help:    "Duration of adapter fetch calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boonscroll_fetch_errors_total",
			Help: "Total adapter fetch failures (timeouts, upstream errors)",
		},
		[]string{"source", "kind"}, // kind: timeout, upstream, breaker
	)

	FetchItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boonscroll_fetch_items_total",
			Help: "Total items returned by adapter fetches",
		},
		[]string{"source"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "boonscroll_breaker_state",
			Help: "Circuit breaker state per source (0=closed, 1=half-open, 2=open)",
		},
		[]string{"source"},
	)

	// Pool and session metrics

	PoolSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "boonscroll_pool_size",
			Help: "Current candidate pool size per user session",
		},
		[]string{"user"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "boonscroll_active_sessions",
			Help: "Number of live scroll sessions",
		},
	)

	SessionsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "boonscroll_sessions_evicted_total",
			Help: "Sessions dropped by the idle evictor",
		},
	)

	// Assembly metrics

	BatchesAssembled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boonscroll_batches_assembled_total",
			Help: "Batches served, labeled by path (tier or filtered)",
		},
		[]string{"path"},
	)

	BatchAssemblyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "boonscroll_batch_assembly_duration_seconds",
			Help:    "End-to-end GetNextBatch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	BatchItems = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boonscroll_batch_items",
			Help:    "Items per served batch, labeled by tier",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 8, 10, 15, 20, 30, 50},
		},
		[]string{"tier"},
	)

	// HTTP metrics

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boonscroll_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Bridge metrics

	BridgePublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boonscroll_bridge_publishes_total",
			Help: "Bridge anchor and comment publishes, labeled by kind and outcome",
		},
		[]string{"kind", "outcome"}, // kind: anchor, comment; outcome: ok, error
	)

	BridgeStatsCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boonscroll_bridge_stats_cache_total",
			Help: "Bridge stats cache lookups, labeled hit or miss",
		},
		[]string{"result"},
	)
)

// ObserveFetch records one adapter fetch: duration, item count, and error
// classification if err is non-nil.
func ObserveFetch(source string, start time.Time, items int, errKind string) {
	FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if errKind != "" {
		FetchErrors.WithLabelValues(source, errKind).Inc()
		return
	}
	FetchItems.WithLabelValues(source).Add(float64(items))
}

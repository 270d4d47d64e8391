// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

// Package metrics provides Prometheus instrumentation for the Room State
// Store: engine operation latency, Fast Store fallbacks, rehydration
// activity, API traffic and live websocket connections.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Engine metrics
	EngineOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "room_engine_op_duration_seconds",
			Help:    "Duration of room engine operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	EngineOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_engine_op_errors_total",
			Help: "Total number of room engine operation failures",
		},
		[]string{"op"},
	)

	// Fast Store metrics
	CacheFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fast_store_fallbacks_total",
			Help: "Reads served from the durable store because the fast store missed or errored",
		},
		[]string{"op"},
	)

	CacheWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fast_store_write_failures_total",
			Help: "Best-effort fast store writes that failed and were logged",
		},
		[]string{"op"},
	)

	CacheBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fast_store_breaker_state",
			Help: "Fast store circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
	)

	// Rehydration metrics
	RehydrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_rehydrations_total",
			Help: "Fast store rehydrations from the durable store",
		},
		[]string{"kind"}, // "members", "votes"
	)

	RehydrationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "room_rehydration_failures_total",
			Help: "Rehydration attempts that could not complete",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently in flight",
		},
	)

	// WebSocket metrics
	WSConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connected_clients",
			Help: "Number of currently connected websocket clients",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of websocket messages sent to clients",
		},
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// ObserveEngineOp records one engine operation's duration and outcome.
func ObserveEngineOp(op string, start time.Time, err error) {
	EngineOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		EngineOpErrors.WithLabelValues(op).Inc()
	}
}

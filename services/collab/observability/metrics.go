// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and instrumentation for the
// collab service.
//
// # Description
//
// This package implements Prometheus metrics for monitoring room activity:
//   - Action counters (by action name and outcome)
//   - Action latency histograms
//   - Active room and participant gauges
//   - Fanout delivery counters for websocket subscribers
//   - Sweep counters for TTL expiry and presence eviction
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "mindmesh"

// Subsystem for collaboration metrics
const collabSubsystem = "collab"

// CollabMetrics holds all Prometheus metrics for room operations.
//
// Initialize once at startup via InitMetrics().
type CollabMetrics struct {
	// ActionsTotal counts client actions by name and outcome.
	// Labels: action (join, leave, add_node, ...),
	// status (accepted, rejected, bad_request, not_found, error)
	ActionsTotal *prometheus.CounterVec

	// ActionDurationSeconds measures action handling latency.
	// Labels: action
	ActionDurationSeconds *prometheus.HistogramVec

	// ActiveRooms tracks the number of live rooms.
	ActiveRooms prometheus.Gauge

	// ActiveParticipants tracks connected participants across all rooms.
	ActiveParticipants prometheus.Gauge

	// EventsFanoutTotal counts change notifications delivered to
	// websocket subscribers.
	// Labels: event (node_added, participant_joined, ...)
	EventsFanoutTotal *prometheus.CounterVec

	// EventsDroppedTotal counts notifications dropped because a
	// subscriber's buffer was full.
	EventsDroppedTotal prometheus.Counter

	// RoomsExpiredTotal counts rooms destroyed by the TTL sweep.
	RoomsExpiredTotal prometheus.Counter

	// ParticipantsEvictedTotal counts participants removed by the idle
	// presence sweep.
	ParticipantsEvictedTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance of CollabMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *CollabMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once at
// application startup.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *CollabMetrics {
	DefaultMetrics = &CollabMetrics{
		ActionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: collabSubsystem,
				Name:      "actions_total",
				Help:      "Total client actions by action name and outcome",
			},
			[]string{"action", "status"},
		),

		ActionDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: collabSubsystem,
				Name:      "action_duration_seconds",
				Help:      "Action handling latency in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
			},
			[]string{"action"},
		),

		ActiveRooms: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: collabSubsystem,
				Name:      "active_rooms",
				Help:      "Number of live rooms",
			},
		),

		ActiveParticipants: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: collabSubsystem,
				Name:      "active_participants",
				Help:      "Connected participants across all rooms",
			},
		),

		EventsFanoutTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: collabSubsystem,
				Name:      "events_fanout_total",
				Help:      "Change notifications delivered to websocket subscribers",
			},
			[]string{"event"},
		),

		EventsDroppedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: collabSubsystem,
				Name:      "events_dropped_total",
				Help:      "Notifications dropped due to full subscriber buffers",
			},
		),

		RoomsExpiredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: collabSubsystem,
				Name:      "rooms_expired_total",
				Help:      "Rooms destroyed by the TTL sweep",
			},
		),

		ParticipantsEvictedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: collabSubsystem,
				Name:      "participants_evicted_total",
				Help:      "Participants removed by the idle presence sweep",
			},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Outcome Labels
// =============================================================================

const (
	// StatusAccepted marks an action that mutated or read room state.
	StatusAccepted = "accepted"

	// StatusRejected marks a structural rejection (success:false).
	StatusRejected = "rejected"

	// StatusBadRequest marks a request shape failure (HTTP 400).
	StatusBadRequest = "bad_request"

	// StatusNotFound marks an unknown room (HTTP 404).
	StatusNotFound = "not_found"

	// StatusError marks an internal failure (HTTP 500).
	StatusError = "error"
)

// ObserveAction records one handled action. Nil-safe so handlers work in
// tests without InitMetrics.
func (m *CollabMetrics) ObserveAction(action, status string, seconds float64) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(action, status).Inc()
	m.ActionDurationSeconds.WithLabelValues(action).Observe(seconds)
}

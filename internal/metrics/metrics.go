// Package metrics holds the Prometheus collectors exported by the native host
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jellyshell"

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Bridge metrics
	BridgeMessages    *prometheus.CounterVec
	BridgeLogsDropped prometheus.Counter

	// Display metrics
	Negotiations *prometheus.CounterVec

	// Discovery metrics
	DiscoveryProbes    prometheus.Counter
	DiscoveryResponses *prometheus.CounterVec
	DiscoverySessions  prometheus.Counter

	// Renderer link metrics
	LinkConnections prometheus.Gauge
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BridgeMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bridge_messages_total",
				Help:      "Messages received from web content, by type",
			},
			[]string{"type"},
		),
		BridgeLogsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_logs_dropped_total",
			Help:      "Web content log messages dropped by the rate limiter",
		}),
		Negotiations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "display_negotiations_total",
				Help:      "Display mode negotiations, by outcome",
			},
			[]string{"outcome"},
		),
		DiscoveryProbes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_probes_total",
			Help:      "Discovery probes broadcast",
		}),
		DiscoveryResponses: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discovery_responses_total",
				Help:      "Discovery datagrams received, by result",
			},
			[]string{"result"},
		),
		DiscoverySessions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_sessions_total",
			Help:      "Discovery sessions started",
		}),
		LinkConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_connections",
			Help:      "Open renderer link connections",
		}),
	}
}

// RecordMessage counts an inbound bridge message
func (m *Metrics) RecordMessage(msgType string) {
	if m == nil {
		return
	}
	m.BridgeMessages.WithLabelValues(msgType).Inc()
}

// RecordLogDropped counts a rate-limited web log message
func (m *Metrics) RecordLogDropped() {
	if m == nil {
		return
	}
	m.BridgeLogsDropped.Inc()
}

// RecordNegotiation counts a negotiation outcome: applied, fallback, skipped or fullscreen
func (m *Metrics) RecordNegotiation(outcome string) {
	if m == nil {
		return
	}
	m.Negotiations.WithLabelValues(outcome).Inc()
}

// RecordProbe counts a sent discovery probe
func (m *Metrics) RecordProbe() {
	if m == nil {
		return
	}
	m.DiscoveryProbes.Inc()
}

// RecordResponse counts a received datagram: server, echo or malformed
func (m *Metrics) RecordResponse(result string) {
	if m == nil {
		return
	}
	m.DiscoveryResponses.WithLabelValues(result).Inc()
}

// RecordSession counts a started discovery session
func (m *Metrics) RecordSession() {
	if m == nil {
		return
	}
	m.DiscoverySessions.Inc()
}

// ConnectionOpened increments the open link connection gauge
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.LinkConnections.Inc()
}

// ConnectionClosed decrements the open link connection gauge
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.LinkConnections.Dec()
}

// Package metrics exposes prometheus counters for the server's observable
// events.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counter families and their registry.
type Metrics struct {
	registry *prometheus.Registry

	tokenRefreshTotal  *prometheus.CounterVec
	normalizationTotal *prometheus.CounterVec
	toolCallsTotal     *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		tokenRefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_token_refresh_total",
			Help: "Token refresh attempts by result.",
		}, []string{"result"}),
		normalizationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "message_normalization_total",
			Help: "Normalized messages by the recovery stage that produced them.",
		}, []string{"stage"}),
		toolCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tool_invocations_total",
			Help: "MCP tool invocations by tool and result.",
		}, []string{"tool", "result"}),
	}
}

// Handler serves the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTokenRefresh counts one token refresh attempt.
func (m *Metrics) RecordTokenRefresh(result string) {
	m.tokenRefreshTotal.WithLabelValues(result).Inc()
}

// RecordNormalization counts one normalized message by producing stage.
func (m *Metrics) RecordNormalization(stage string) {
	m.normalizationTotal.WithLabelValues(stage).Inc()
}

// RecordToolCall counts one MCP tool invocation.
func (m *Metrics) RecordToolCall(tool, result string) {
	m.toolCallsTotal.WithLabelValues(tool, result).Inc()
}

// Package metrics exposes Prometheus counters and histograms for the proxy.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mcp_openapi_proxy"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Collector holds the proxy metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	toolListTotal    *prometheus.CounterVec
	toolCallsTotal   *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	specFetchTotal   *prometheus.CounterVec
}

// NewCollector creates a collector registered on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		toolListTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_list_total",
				Help:      "Total number of list_functions invocations",
			},
			[]string{"result"},
		),
		toolCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Total number of call_function invocations",
			},
			[]string{"tool", "result"},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_duration_seconds",
				Help:      "Upstream API request duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),
		specFetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "spec_fetch_total",
				Help:      "Total number of OpenAPI document fetches by source",
			},
			[]string{"source", "result"},
		),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordToolList counts one list_functions invocation.
func (c *Collector) RecordToolList(ok bool) {
	if c == nil {
		return
	}
	c.toolListTotal.WithLabelValues(result(ok)).Inc()
}

// RecordToolCall counts one call_function invocation for a tool.
func (c *Collector) RecordToolCall(tool string, ok bool) {
	if c == nil {
		return
	}
	c.toolCallsTotal.WithLabelValues(tool, result(ok)).Inc()
}

// ObserveUpstream records the latency of one upstream request.
func (c *Collector) ObserveUpstream(method string, d time.Duration) {
	if c == nil {
		return
	}
	c.upstreamDuration.WithLabelValues(method).Observe(d.Seconds())
}

// RecordSpecFetch counts one document fetch from a source kind.
func (c *Collector) RecordSpecFetch(source string, ok bool) {
	if c == nil {
		return
	}
	c.specFetchTotal.WithLabelValues(source, result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return ResultOK
	}
	return ResultError
}

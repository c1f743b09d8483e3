// Package metrics records client-side request counters for the backend calls.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/heartmarshall/civic-client/internal/gateway"
)

const namespace = "civic_client"

// Collector observes gateway calls into a private Prometheus registry.
type Collector struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ gateway.Observer = (*Collector)(nil)

// New creates a Collector with its own registry. Go runtime collectors are
// registered when withRuntime is set.
func New(withRuntime bool) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Backend calls by method, route and outcome.",
		}, []string{"method", "route", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of backend calls.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(c.requests, c.duration)
	if withRuntime {
		c.registry.MustRegister(collectors.NewGoCollector())
	}
	return c
}

// ObserveRequest implements gateway.Observer.
func (c *Collector) ObserveRequest(method, route string, outcome gateway.Outcome, elapsed time.Duration) {
	c.requests.WithLabelValues(method, route, string(outcome)).Inc()
	c.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry, e.g. for promhttp.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile dumps the current values in the node_exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("metrics.WriteTextfile: %w", err)
	}
	return nil
}

// Package metrics turns pipeline lifecycle events into Prometheus metrics.
package metrics

import (
	"github.com/dcshock/corridor/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Execution outcomes used as the status label.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Collector holds the metric instances fed by Handle.
type Collector struct {
	Executions    *prometheus.CounterVec
	PhaseDuration *prometheus.HistogramVec
	Cancellations *prometheus.CounterVec
}

// NewCollector registers the corridor metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		Executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "corridor",
				Name:      "executions_total",
				Help:      "Total number of finished task and runner executions",
			},
			[]string{"kind", "name", "status"},
		),

		PhaseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "corridor",
				Name:      "phase_duration_seconds",
				Help:      "Duration of completed lifecycle phases",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind", "name", "phase"},
		),

		Cancellations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "corridor",
				Name:      "cancellations_total",
				Help:      "Total number of cancel calls",
			},
			[]string{"name"},
		),
	}
}

// Handle records e. It is an event.Handler.
func (c *Collector) Handle(e event.Event) {
	switch {
	case e.Phase == event.PhaseCancel:
		c.Cancellations.WithLabelValues(e.Name).Inc()
	case e.Phase == event.PhaseFail:
		c.Executions.WithLabelValues(e.Kind, e.Name, StatusFailure).Inc()
	case e.Boundary == event.End:
		c.PhaseDuration.WithLabelValues(e.Kind, e.Name, e.Phase).Observe(e.Elapsed.Seconds())
		if e.Phase == event.PhasePost {
			c.Executions.WithLabelValues(e.Kind, e.Name, StatusSuccess).Inc()
		}
	}
}

// Observe subscribes the collector to every event of em.
func (c *Collector) Observe(em event.Emitter) (off func()) {
	return em.On(event.All, c.Handle)
}

// Package metrics exposes simulation diagnostics and objection activity as
// prometheus collectors on a private registry.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors for one simulation.
type Metrics struct {
	Registry *prometheus.Registry

	Diagnostics *prometheus.CounterVec
	Raised      prometheus.Counter
	Active      prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New(namespace string) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Diagnostics emitted by the report handler, by severity.",
		}, []string{"severity"}),
		Raised: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objections_raised_total",
			Help:      "Objections raised over the lifetime of the simulation.",
		}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "objections_active",
			Help:      "Objections currently outstanding.",
		}),
	}
	m.Registry.MustRegister(m.Diagnostics, m.Raised, m.Active)
	return m
}

// ObserveDiagnostic counts one diagnostic of the given severity.
func (m *Metrics) ObserveDiagnostic(severity string) {
	m.Diagnostics.WithLabelValues(severity).Inc()
}

// ObjectionRaised counts one raised objection.
func (m *Metrics) ObjectionRaised() { m.Raised.Inc() }

// ObjectionsActive records the number of outstanding objections.
func (m *Metrics) ObjectionsActive(n int) { m.Active.Set(float64(n)) }

// WriteTextfile writes the registry in the text exposition format to path,
// for pickup by a node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

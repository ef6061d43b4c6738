// Package metrics exposes Prometheus counters for policy decisions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "teamtodo"

// Decisions records policy outcomes by operation, caller role and verdict.
type Decisions struct {
	registry *prometheus.Registry
	total    *prometheus.CounterVec
	scopes   *prometheus.CounterVec
}

// NewDecisions creates and registers the decision counters on a fresh registry.
func NewDecisions() *Decisions {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d := &Decisions{
		registry: registry,
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "decisions_total",
			Help:      "Policy decisions by operation, caller role and verdict.",
		}, []string{"operation", "role", "verdict"}),
		scopes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "list_scopes_total",
			Help:      "Listing scopes resolved by caller role and scope kind.",
		}, []string{"role", "scope"}),
	}
	registry.MustRegister(d.total, d.scopes)

	return d
}

// Observe counts one decision.
func (d *Decisions) Observe(operation, role, verdict string) {
	if d == nil {
		return
	}
	d.total.WithLabelValues(operation, role, verdict).Inc()
}

// ObserveScope counts one resolved listing scope.
func (d *Decisions) ObserveScope(role, scope string) {
	if d == nil {
		return
	}
	d.scopes.WithLabelValues(role, scope).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (d *Decisions) Handler() http.Handler {
	return promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (d *Decisions) Registry() *prometheus.Registry {
	return d.registry
}

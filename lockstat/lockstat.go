// SPDX-License-Identifier: Unlicense OR MIT

// Package lockstat counts lock attempts for export to Prometheus.
package lockstat

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "freestand_lock"

// Collector is a prometheus.Collector counting successful and contended
// lock attempts per resource. It satisfies console.Stats.
type Collector struct {
	acquired  *prometheus.CounterVec
	contended *prometheus.CounterVec
}

// New returns a Collector with no counts.
func New() *Collector {
	return &Collector{
		acquired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "acquired_total",
				Help:      "The number of successful lock attempts.",
			}, []string{"resource"},
		),
		contended: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "contended_total",
				Help:      "The number of lock attempts that found the lock held.",
			}, []string{"resource"},
		),
	}
}

// Acquired records a successful attempt on resource.
func (c *Collector) Acquired(resource string) {
	c.acquired.WithLabelValues(resource).Inc()
}

// Contended records a failed attempt on resource.
func (c *Collector) Contended(resource string) {
	c.contended.WithLabelValues(resource).Inc()
}

// Record records the outcome of one attempt.
func (c *Collector) Record(resource string, ok bool) {
	if ok {
		c.Acquired(resource)
	} else {
		c.Contended(resource)
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.acquired.Describe(ch)
	c.contended.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.acquired.Collect(ch)
	c.contended.Collect(ch)
}

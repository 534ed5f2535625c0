package caqtipool

import "github.com/prometheus/client_golang/prometheus"

// StatsProvider is satisfied by any *Pool[R] regardless of R, since
// Stats itself does not depend on the resource type.
type StatsProvider interface {
	Stats() Stats
}

// Collector is an optional prometheus.Collector exposing pool
// bookkeeping as gauges/counters, grounded on haasonsaas-nexus's
// internal/canvas.Metrics (promauto.NewGauge/NewCounter wiring).
// Unlike that example's promauto globals, Collector reports on demand
// from a Stats snapshot so multiple pools can each register their own
// labelled instance rather than sharing package-level metrics.
type Collector struct {
	pool StatsProvider
	name string

	size                *prometheus.Desc
	idleSize            *prometheus.Desc
	inUse               *prometheus.Desc
	waiters             *prometheus.Desc
	creates             *prometheus.Desc
	destroys            *prometheus.Desc
	invalidations       *prometheus.Desc
	healthCheckFailures *prometheus.Desc
	idleExpired         *prometheus.Desc
}

// NewCollector wraps pool's Stats snapshot as a prometheus.Collector,
// labelled with name (e.g. the logical role of the pool: "primary",
// "replica"). Register it with a prometheus.Registerer.
func NewCollector(name string, pool StatsProvider) *Collector {
	labels := prometheus.Labels{"pool": name}
	mkDesc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc("caqtipool_"+metric, help, nil, labels)
	}

	return &Collector{
		pool:                pool,
		name:                name,
		size:                mkDesc("size", "Resources the pool is currently accountable for (idle + in-use + being-created)."),
		idleSize:            mkDesc("idle_size", "Idle resources awaiting checkout."),
		inUse:               mkDesc("in_use", "Resources currently lent to a caller."),
		waiters:             mkDesc("waiters", "Acquirers currently suspended waiting for a slot."),
		creates:             mkDesc("creates_total", "Resources created over the pool's lifetime."),
		destroys:            mkDesc("destroys_total", "Resources destroyed over the pool's lifetime."),
		invalidations:       mkDesc("invalidations_total", "Idle resources rejected by Validate."),
		healthCheckFailures: mkDesc("health_check_failures_total", "Resources rejected by Check on release."),
		idleExpired:         mkDesc("idle_expired_total", "Resources destroyed by idle-age expiry."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.size
	ch <- c.idleSize
	ch <- c.inUse
	ch <- c.waiters
	ch <- c.creates
	ch <- c.destroys
	ch <- c.invalidations
	ch <- c.healthCheckFailures
	ch <- c.idleExpired
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stats()

	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(s.Size))
	ch <- prometheus.MustNewConstMetric(c.idleSize, prometheus.GaugeValue, float64(s.IdleSize))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(s.InUse))
	ch <- prometheus.MustNewConstMetric(c.waiters, prometheus.GaugeValue, float64(s.Waiters))
	ch <- prometheus.MustNewConstMetric(c.creates, prometheus.CounterValue, float64(s.Creates))
	ch <- prometheus.MustNewConstMetric(c.destroys, prometheus.CounterValue, float64(s.Destroys))
	ch <- prometheus.MustNewConstMetric(c.invalidations, prometheus.CounterValue, float64(s.Invalidations))
	ch <- prometheus.MustNewConstMetric(c.healthCheckFailures, prometheus.CounterValue, float64(s.HealthCheckFailures))
	ch <- prometheus.MustNewConstMetric(c.idleExpired, prometheus.CounterValue, float64(s.IdleExpired))
}

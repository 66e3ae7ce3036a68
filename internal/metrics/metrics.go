// Package metrics wires the engine's counters into a prometheus.Registry
// and exposes a luxfi/metric adapter, following the teacher's
// metrics_adapter.go pattern of wrapping a *prometheus.Registry behind the
// luxmetric.Metrics interface instead of reaching for package-level
// globals.
package metrics

import (
	luxmetric "github.com/luxfi/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every counter/gauge the engine's components publish.
// One Registry is created per process and threaded through the Runtime.
type Registry struct {
	prom *prometheus.Registry

	InQueueSize          *prometheus.GaugeVec
	OutQueueSize         *prometheus.GaugeVec
	RootFrontierSize     prometheus.Gauge
	TransactionsExecuted prometheus.Counter
	TransactionsRejected prometheus.Counter
	SubscriptionMatches  prometheus.Counter
	PersistenceEnqueued  prometheus.Counter
	PersistenceWritten   prometheus.Counter
	PersistenceErrors    prometheus.Counter
	PersistenceInFlight  prometheus.Gauge
}

// New builds a Registry and registers every collector with a fresh
// prometheus.Registry.
func New() *Registry {
	r := &Registry{
		prom: prometheus.NewRegistry(),
		InQueueSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orderengine",
			Subsystem: "inqueue",
			Name:      "size",
			Help:      "approximate number of entries pending in an incoming queue",
		}, []string{"source"}),
		OutQueueSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orderengine",
			Subsystem: "outqueue",
			Name:      "size",
			Help:      "approximate number of entries pending in an outgoing queue",
		}, []string{"target"}),
		RootFrontierSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "orderengine",
			Subsystem: "graph",
			Name:      "root_frontier_size",
			Help:      "number of transactions currently eligible to execute",
		}),
		TransactionsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orderengine",
			Subsystem: "txn",
			Name:      "executed_total",
			Help:      "transactions that completed execution and were removed from the graph",
		}),
		TransactionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orderengine",
			Subsystem: "txn",
			Name:      "rejected_total",
			Help:      "transactions that completed with a business reject",
		}),
		SubscriptionMatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orderengine",
			Subsystem: "subscription",
			Name:      "matches_total",
			Help:      "subscriber notifications delivered",
		}),
		PersistenceEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orderengine",
			Subsystem: "persistence",
			Name:      "enqueued_total",
			Help:      "write requests enqueued to the write-behind worker",
		}),
		PersistenceWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orderengine",
			Subsystem: "persistence",
			Name:      "written_total",
			Help:      "write requests successfully committed",
		}),
		PersistenceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orderengine",
			Subsystem: "persistence",
			Name:      "errors_total",
			Help:      "write requests dropped after a permanent error",
		}),
		PersistenceInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "orderengine",
			Subsystem: "persistence",
			Name:      "in_flight",
			Help:      "write requests enqueued but not yet written or errored",
		}),
	}
	r.prom.MustRegister(
		r.InQueueSize, r.OutQueueSize, r.RootFrontierSize,
		r.TransactionsExecuted, r.TransactionsRejected, r.SubscriptionMatches,
		r.PersistenceEnqueued, r.PersistenceWritten, r.PersistenceErrors, r.PersistenceInFlight,
	)
	return r
}

// Prometheus returns the underlying registry, for serving /metrics.
func (r *Registry) Prometheus() *prometheus.Registry { return r.prom }

// AsLuxMetric wraps the registry behind the luxfi/metric.Metrics interface,
// mirroring the teacher's WrapMetricsRegistry/NewMetricsAdapter helpers so
// components that accept a luxmetric.Metrics (rather than a concrete
// prometheus type) can consume the same counters.
func (r *Registry) AsLuxMetric() luxmetric.Metrics {
	if r == nil || r.prom == nil {
		return luxmetric.New("orderengine")
	}
	return luxmetric.NewWithRegistry("orderengine", r.prom)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "hdwallet_provider"

// Metrics holds the collectors of one provider on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	Errors          *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SignedTxs       prometheus.Counter
	LatestBlock     prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "JSON-RPC requests handled, by method.",
		}, []string{"method"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_errors_total",
			Help:      "JSON-RPC requests that returned an error, by method.",
		}, []string{"method"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_request_duration_seconds",
			Help:      "Time spent in the pipeline, by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		SignedTxs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signed_transactions_total",
			Help:      "Transactions signed locally.",
		}),
		LatestBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latest_block",
			Help:      "Last block number seen by the block tracker.",
		}),
	}

	m.registry.MustRegister(
		m.Requests,
		m.Errors,
		m.RequestDuration,
		m.SignedTxs,
		m.LatestBlock,
		collectors.NewGoCollector(),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

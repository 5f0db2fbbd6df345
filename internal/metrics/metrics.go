// Package metrics provides Prometheus metrics collection for the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the global Prometheus registry for all metrics.
var Registry = prometheus.NewRegistry()

func init() {
	// Register default Go metrics collectors
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// SyncMetrics contains Prometheus metrics for the feed sync job.
type SyncMetrics struct {
	RunsTotal        prometheus.Counter
	RecordsInserted  *prometheus.CounterVec
	FetchErrors      *prometheus.CounterVec
	WebsocketClients prometheus.Gauge
}

// NewSyncMetrics creates and registers feed sync metrics.
func NewSyncMetrics(namespace string) *SyncMetrics {
	m := &SyncMetrics{
		RunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sync",
				Name:      "runs_total",
				Help:      "Total number of feed sync ticks",
			},
		),
		RecordsInserted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sync",
				Name:      "records_inserted_total",
				Help:      "Total number of mirrored records inserted",
			},
			[]string{"feed"},
		),
		FetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sync",
				Name:      "fetch_errors_total",
				Help:      "Total number of upstream fetch failures",
			},
			[]string{"feed"},
		),
		WebsocketClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "websocket",
				Name:      "clients",
				Help:      "Number of connected dashboard websocket clients",
			},
		),
	}

	Registry.MustRegister(m.RunsTotal, m.RecordsInserted, m.FetchErrors, m.WebsocketClients)
	return m
}

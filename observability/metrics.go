package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics exposes the counters and histograms a running batch
// updates: lines in flight, node latency, and bypass/failure totals, all
// namespaced "flowdag_".
type PrometheusMetrics struct {
	mu sync.RWMutex

	nodesInflight      prometheus.Gauge
	frontierDepth      prometheus.Gauge
	batchLinesInflight prometheus.Gauge
	nodeLatency        *prometheus.HistogramVec
	bypassedTotal      *prometheus.CounterVec
	failedTotal        *prometheus.CounterVec
}

// NewPrometheusMetrics registers every metric against registry.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(registry)
	return &PrometheusMetrics{
		nodesInflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "flowdag",
			Name:      "nodes_inflight",
			Help:      "Number of node callables currently executing.",
		}),
		frontierDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "flowdag",
			Name:      "frontier_depth",
			Help:      "Number of nodes ready to dispatch but not yet started.",
		}),
		batchLinesInflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "flowdag",
			Name:      "batch_lines_inflight",
			Help:      "Number of batch lines currently being driven to completion.",
		}),
		nodeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flowdag",
			Name:      "node_latency_ms",
			Help:      "Node callable execution duration in milliseconds.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"node_name"}),
		bypassedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowdag",
			Name:      "bypassed_total",
			Help:      "Cumulative count of bypassed node evaluations.",
		}, []string{"node_name"}),
		failedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowdag",
			Name:      "failed_total",
			Help:      "Cumulative count of failed node evaluations.",
		}, []string{"node_name"}),
	}
}

func (m *PrometheusMetrics) SetNodesInflight(n int) { m.nodesInflight.Set(float64(n)) }

func (m *PrometheusMetrics) SetFrontierDepth(n int) { m.frontierDepth.Set(float64(n)) }

func (m *PrometheusMetrics) SetBatchLinesInflight(n int) { m.batchLinesInflight.Set(float64(n)) }

func (m *PrometheusMetrics) ObserveNodeLatency(nodeName string, ms float64) {
	m.nodeLatency.WithLabelValues(nodeName).Observe(ms)
}

func (m *PrometheusMetrics) IncBypassed(nodeName string) {
	m.bypassedTotal.WithLabelValues(nodeName).Inc()
}

func (m *PrometheusMetrics) IncFailed(nodeName string) {
	m.failedTotal.WithLabelValues(nodeName).Inc()
}

package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "envctl"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	messages         *prom.CounterVec
	unknownNames     *prom.CounterVec
	dispatchDuration prom.Histogram
	broadcasts       prom.Counter
	deliveries       prom.Counter
	clients          prom.Gauge
	persist          *prom.CounterVec
	stateBytes       prom.Gauge
}

// NewPrometheusRecorder constructs the controller metrics and registers them,
// together with the Go and process collectors, on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		messages: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound messages by id and outcome",
		}, []string{"id", "result"}),
		unknownNames: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_names_total",
			Help:      "Messages addressing an entity name that is not configured",
		}, []string{"id"}),
		dispatchDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent applying one message under the state lock",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}),
		broadcasts: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Outbound payloads broadcast to all clients",
		}),
		deliveries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_deliveries_total",
			Help:      "Client sends queued by broadcasts",
		}),
		clients: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Currently connected WebSocket clients",
		}),
		persist: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "persist_operations_total",
			Help:      "State load/save operations by outcome",
		}, []string{"op", "result"}),
		stateBytes: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "state_bytes",
			Help:      "Size of the most recently saved state",
		}),
	}
	reg.MustRegister(pr.messages, pr.unknownNames, pr.dispatchDuration, pr.broadcasts,
		pr.deliveries, pr.clients, pr.persist, pr.stateBytes)
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return pr
}

func (p *PrometheusRecorder) IncMessage(id string, result ResultLabel) {
	p.messages.WithLabelValues(id, string(result)).Inc()
}

func (p *PrometheusRecorder) IncUnknownName(id string) {
	p.unknownNames.WithLabelValues(id).Inc()
}

func (p *PrometheusRecorder) ObserveDispatchDuration(d time.Duration) {
	p.dispatchDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBroadcast(receivers int) {
	p.broadcasts.Inc()
	p.deliveries.Add(float64(receivers))
}

func (p *PrometheusRecorder) SetClients(n int) {
	p.clients.Set(float64(n))
}

func (p *PrometheusRecorder) IncPersist(op string, success bool) {
	res := "failed"
	if success {
		res = "success"
	}
	p.persist.WithLabelValues(op, res).Inc()
}

func (p *PrometheusRecorder) SetStateBytes(n int) {
	p.stateBytes.Set(float64(n))
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Package metrics exposes Prometheus metrics for relayed chat requests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chatrelay"

// Token types used as the "type" label.
const (
	TokenTypePrompt     = "prompt"
	TokenTypeCompletion = "completion"
)

// durationBuckets covers streamed LLM responses (100ms to 5m).
var durationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}

// Collector owns the registry and the chat metrics.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
	deltasTotal     prometheus.Counter
}

// NewCollector creates a collector on a fresh registry.
// Go runtime and process collectors are included.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "requests_total",
				Help:      "Total number of chat requests by model and response status.",
			},
			[]string{"model", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "request_duration_seconds",
				Help:      "Duration of chat requests including the relayed stream.",
				Buckets:   durationBuckets,
			},
			[]string{"model"},
		),
		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "tokens_total",
				Help:      "Total prompt and completion tokens by model.",
			},
			[]string{"model", "type"},
		),
		deltasTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_deltas_total",
				Help:      "Total text deltas relayed to clients.",
			},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.tokensTotal,
		c.deltasTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveRequest records one finished chat request.
func (c *Collector) ObserveRequest(model string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	model = modelLabel(model)
	c.requestsTotal.WithLabelValues(model, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// AddTokens records prompt and completion token usage.
func (c *Collector) AddTokens(model string, prompt, completion int) {
	if c == nil {
		return
	}
	model = modelLabel(model)
	if prompt > 0 {
		c.tokensTotal.WithLabelValues(model, TokenTypePrompt).Add(float64(prompt))
	}
	if completion > 0 {
		c.tokensTotal.WithLabelValues(model, TokenTypeCompletion).Add(float64(completion))
	}
}

// IncDeltas counts one relayed text delta.
func (c *Collector) IncDeltas() {
	if c == nil {
		return
	}
	c.deltasTotal.Inc()
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

func modelLabel(model string) string {
	if model == "" {
		return "unknown"
	}
	return model
}

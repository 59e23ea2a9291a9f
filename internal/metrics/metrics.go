// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jaspreetkaur1509/Agri-bot/internal/advisory"
	"github.com/jaspreetkaur1509/Agri-bot/internal/llm"
)

const namespace = "agribot"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	llmRequests *prometheus.CounterVec
	llmDuration *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec
	llmCost     *prometheus.CounterVec

	soilLabels       *prometheus.CounterVec
	irrigationLiters prometheus.Histogram
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_requests_total",
			Help: "LLM calls by provider, endpoint and outcome.",
		}, []string{"provider", "endpoint", "outcome"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "llm_request_duration_seconds",
			Help:    "Latency of successful LLM calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"provider", "endpoint"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_tokens_total",
			Help: "Tokens consumed, split by direction.",
		}, []string{"provider", "direction"}),
		llmCost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_cost_usd_total",
			Help: "Estimated LLM spend in USD.",
		}, []string{"provider", "model"}),
		soilLabels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "soil_classifications_total",
			Help: "Soil fertility classifications by label.",
		}, []string{"label"}),
		irrigationLiters: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "irrigation_recommendation_liters",
			Help:    "Recommended irrigation volume per acre.",
			Buckets: prometheus.LinearBuckets(advisory.MinIrrigationLiters, 15, 8),
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration,
		m.llmRequests, m.llmDuration, m.llmTokens, m.llmCost,
		m.soilLabels, m.irrigationLiters,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordUsage implements llm.UsageRecorder.
func (m *Metrics) RecordUsage(_ context.Context, rec llm.UsageRecord) {
	endpoint := rec.Endpoint
	if endpoint == "" {
		endpoint = "other"
	}
	if rec.Err != nil {
		m.llmRequests.WithLabelValues(rec.Provider, endpoint, "error").Inc()
		return
	}
	m.llmRequests.WithLabelValues(rec.Provider, endpoint, "ok").Inc()
	m.llmDuration.WithLabelValues(rec.Provider, endpoint).Observe(float64(rec.LatencyMs) / 1000)
	m.llmTokens.WithLabelValues(rec.Provider, "input").Add(float64(rec.InputTokens))
	m.llmTokens.WithLabelValues(rec.Provider, "output").Add(float64(rec.OutputTokens))
	m.llmCost.WithLabelValues(rec.Provider, rec.Model).Add(rec.CostUSD)
}

func (m *Metrics) ObserveSoil(label advisory.FertilityLabel) {
	m.soilLabels.WithLabelValues(string(label)).Inc()
}

func (m *Metrics) ObserveIrrigation(liters float64) {
	m.irrigationLiters.Observe(liters)
}

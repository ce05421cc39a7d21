package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/aretw0/mermaidviz/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mermaidviz"

// Metrics holds the Prometheus collectors of the service.
// Each instance owns its registry so tests and embedders never collide.
type Metrics struct {
	registry *prometheus.Registry

	Conversions *prometheus.CounterVec
	CacheHits   prometheus.Counter
	Duration    *prometheus.HistogramVec
	InputBytes  prometheus.Histogram
	Requests    *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors, including Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Conversions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Total number of text-to-diagram conversions by outcome and diagram kind",
			},
			[]string{"outcome", "kind"},
		),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Conversions answered from the cache",
		}),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "conversion_duration_seconds",
				Help:      "Duration of conversions, upstream call included",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		InputBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_input_bytes",
			Help:      "Size of sanitized conversion inputs",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 8),
		}),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route pattern, method and status code",
			},
			[]string{"route", "method", "code"},
		),
	}

	reg.MustRegister(
		m.Conversions, m.CacheHits, m.Duration, m.InputBytes, m.Requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks records conversion outcomes.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnConvertStart: func(ctx context.Context, e *domain.ConvertEvent) {
			m.InputBytes.Observe(float64(e.InputSize))
		},
		OnConvertDone: func(ctx context.Context, e *domain.ConvertEvent) {
			outcome := Outcome(e.Err)
			kind := e.Kind
			if kind == "" {
				kind = "none"
			}
			m.Conversions.WithLabelValues(outcome, kind).Inc()
			m.Duration.WithLabelValues(outcome).Observe(e.Duration.Seconds())
			if e.CacheHit {
				m.CacheHits.Inc()
			}
		},
	}
}

// Outcome classifies a conversion error into a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream_status"
	case errors.Is(err, domain.ErrEmptyAnswer):
		return "empty_answer"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

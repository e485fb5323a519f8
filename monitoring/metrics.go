package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Error kinds reported to feedback_prediction_errors_total.
const (
	ErrorKindInput       = "client_input"
	ErrorKindUnavailable = "model_unavailable"
	ErrorKindInternal    = "internal"
)

// Metrics holds the inference collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	errors      *prometheus.CounterVec
	cacheHits   prometheus.Counter
	duration    prometheus.Histogram
	modelLoaded prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_predictions_total",
			Help: "Predictions served, by label.",
		}, []string{"label"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_prediction_errors_total",
			Help: "Failed predictions, by error kind.",
		}, []string{"kind"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feedback_prediction_cache_hits_total",
			Help: "Predictions answered from the in-process cache.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "feedback_inference_duration_seconds",
			Help:    "Time spent in transform and predict.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		modelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "feedback_model_loaded",
			Help: "1 when the preprocessor and classifier loaded at startup.",
		}),
	}
	m.registry.MustRegister(
		m.predictions,
		m.errors,
		m.cacheHits,
		m.duration,
		m.modelLoaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObservePrediction(label string, elapsed time.Duration, cached bool) {
	m.predictions.WithLabelValues(label).Inc()
	if cached {
		m.cacheHits.Inc()
		return
	}
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveError(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetModelLoaded(loaded bool) {
	if loaded {
		m.modelLoaded.Set(1)
	} else {
		m.modelLoaded.Set(0)
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus text exposition.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

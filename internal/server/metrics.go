package server

import (
	"net/http"
	"time"

	"github.com/nao1215/reviewscan/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "reviewscan"

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Requests         *prometheus.CounterVec
	ReviewsLabeled   *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	ScrapeDuration   prometheus.Histogram
	ArtifactsLoaded  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them, together with
// the Go and process collectors, on a new registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "analyze_requests_total",
			Help:      "Analyze requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		ReviewsLabeled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reviews_classified_total",
			Help:      "Classified reviews by label.",
		}, []string{"label"}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of one analyze call.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		ScrapeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "scrape_duration_seconds",
			Help:      "Time spent fetching and extracting a page.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		ArtifactsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "artifacts_loaded",
			Help:      "1 when the model and vectorizer are loaded.",
		}),
	}
}

// ObserveReview counts one classified review. It is meant to be passed
// to pipeline.WithObserver.
func (m *Metrics) ObserveReview(r model.ClassifiedReview) {
	m.ReviewsLabeled.WithLabelValues(r.Label.String()).Inc()
}

// ObserveAnalysis records the outcome and timings of one analyze call.
func (m *Metrics) ObserveAnalysis(endpoint, outcome string, elapsed time.Duration, analysis *model.Analysis) {
	m.Requests.WithLabelValues(endpoint, outcome).Inc()
	m.AnalysisDuration.Observe(elapsed.Seconds())
	if analysis != nil && analysis.ScrapeTime > 0 {
		m.ScrapeDuration.Observe(analysis.ScrapeTime.Seconds())
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

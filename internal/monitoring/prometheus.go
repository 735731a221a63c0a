package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus holds the exported collectors on a private registry so tests
// can build as many as they like.
type Prometheus struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	ScoreDuration   prometheus.Histogram
	Scores          *prometheus.CounterVec
	FeaturesScored  prometheus.Counter
	CohortLookups   *prometheus.CounterVec
	CacheRequests   *prometheus.CounterVec
	RateLimitBlocks *prometheus.CounterVec
}

// NewPrometheus creates and registers every collector.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "traits_http_request_duration_seconds",
				Help:    "HTTP request latency by route and status",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"method", "route", "status"},
		),

		ScoreDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "traits_score_duration_seconds",
				Help:    "Time spent scoring one athlete across all dimensions",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),

		Scores: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "traits_scores_total",
				Help: "Scoring requests by result",
			},
			[]string{"result"},
		),

		FeaturesScored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "traits_features_scored_total",
				Help: "Feature observations accepted for scoring",
			},
		),

		CohortLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "traits_cohort_lookups_total",
				Help: "Cohort table store lookups by result",
			},
			[]string{"result"},
		),

		CacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "traits_response_cache_requests_total",
				Help: "Response cache lookups by result",
			},
			[]string{"result"},
		),

		RateLimitBlocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "traits_rate_limit_blocks_total",
				Help: "Requests rejected by the rate limiter by backend",
			},
			[]string{"backend"},
		),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.RequestDuration,
		p.ScoreDuration,
		p.Scores,
		p.FeaturesScored,
		p.CohortLookups,
		p.CacheRequests,
		p.RateLimitBlocks,
	)

	return p
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

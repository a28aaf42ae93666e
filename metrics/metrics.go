package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service collectors.
type Metrics struct {
	InferenceRequests  *prometheus.CounterVec
	InferenceLatency   prometheus.Histogram
	RecommendationHits *prometheus.CounterVec
	GeneratorCalls     *prometheus.CounterVec
	GeneratorLatency   prometheus.Histogram
	RateLimitHits      prometheus.Counter
}

// New creates the collectors and registers them on reg. A nil reg leaves them
// unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		InferenceRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_advisor_inference_requests_total",
				Help: "Classification subprocess runs by outcome.",
			},
			[]string{"outcome"},
		),
		InferenceLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "credit_advisor_inference_duration_seconds",
				Help:    "Wall time of classification subprocess runs.",
				Buckets: prometheus.DefBuckets,
			},
		),
		RecommendationHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_advisor_recommendation_cache_total",
				Help: "Recommendation cache lookups by result.",
			},
			[]string{"result"},
		),
		GeneratorCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_advisor_generator_calls_total",
				Help: "Generation API calls by outcome.",
			},
			[]string{"outcome"},
		),
		GeneratorLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "credit_advisor_generator_duration_seconds",
				Help:    "Latency of generation API calls.",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
		),
		RateLimitHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_advisor_rate_limit_hits_total",
				Help: "Requests rejected by the rate limiter.",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.InferenceRequests,
			m.InferenceLatency,
			m.RecommendationHits,
			m.GeneratorCalls,
			m.GeneratorLatency,
			m.RateLimitHits,
		)
	}
	return m
}

// RecordInference records one classification run.
func (m *Metrics) RecordInference(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.InferenceRequests.WithLabelValues(outcome).Inc()
	m.InferenceLatency.Observe(duration.Seconds())
}

// RecordCacheLookup records a recommendation cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.RecommendationHits.WithLabelValues(result).Inc()
}

// RecordGeneration records one generation API call.
func (m *Metrics) RecordGeneration(err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.GeneratorCalls.WithLabelValues(outcome).Inc()
	m.GeneratorLatency.Observe(duration.Seconds())
}

// RecordRateLimitHit counts a rejected request.
func (m *Metrics) RecordRateLimitHit() {
	if m == nil {
		return
	}
	m.RateLimitHits.Inc()
}

package openapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "specforge"

// Metrics records document builds and validation outcomes. A nil *Metrics
// records nothing.
type Metrics struct {
	builds             *prometheus.CounterVec
	buildDuration      *prometheus.HistogramVec
	cacheHits          *prometheus.CounterVec
	validationFailures prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. It
// returns nil when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	factory := promauto.With(reg)

	return &Metrics{
		builds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "spec_builds_total",
			Help:      "Number of document builds by spec endpoint and result.",
		}, []string{"endpoint", "result"}),
		buildDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "spec_build_duration_seconds",
			Help:      "Time spent assembling a document.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"endpoint"}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "spec_cache_hits_total",
			Help:      "Number of documents served from the cache.",
		}, []string{"endpoint"}),
		validationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "validation_failures_total",
			Help:      "Number of payloads rejected by schema validation.",
		}),
	}
}

func (m *Metrics) observeBuild(endpoint string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.builds.WithLabelValues(endpoint, result).Inc()
	m.buildDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) cacheHit(endpoint string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) validationFailure() {
	if m == nil {
		return
	}
	m.validationFailures.Inc()
}

// Package metrics exposes Prometheus counters for provider calls, fallback
// verdicts and record repairs.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/nutriscan/backend/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Call outcomes used as the "outcome" label
const (
	OutcomeSuccess    = "success"
	OutcomeTimeout    = "timeout"
	OutcomeNotFound   = "not_found"
	OutcomeParseError = "parse_error"
	OutcomeError      = "error"
)

// Metrics holds the service collectors. It satisfies usecase.Metrics.
type Metrics struct {
	registry *prometheus.Registry

	providerCallsTotal   *prometheus.CounterVec
	providerCallDuration *prometheus.HistogramVec
	fallbacksTotal       *prometheus.CounterVec
	recordsRepairedTotal prometheus.Counter
	httpRequestsTotal    *prometheus.CounterVec
}

// New creates and registers the service metrics
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}

	m.providerCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutriscan_provider_calls_total",
			Help: "Total number of external provider calls",
		},
		[]string{"provider", "operation", "outcome"},
	)

	m.providerCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nutriscan_provider_call_duration_seconds",
			Help:    "Time taken by external provider calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"provider", "operation"},
	)

	m.fallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutriscan_fallback_verdicts_total",
			Help: "Total number of verdicts synthesized after a failed stage",
		},
		[]string{"stage"},
	)

	m.recordsRepairedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nutriscan_records_repaired_total",
			Help: "Total number of product records rewritten by the repair pass",
		},
	)

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutriscan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.providerCallsTotal.Describe(ch)
	m.providerCallDuration.Describe(ch)
	m.fallbacksTotal.Describe(ch)
	m.recordsRepairedTotal.Describe(ch)
	m.httpRequestsTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.providerCallsTotal.Collect(ch)
	m.providerCallDuration.Collect(ch)
	m.fallbacksTotal.Collect(ch)
	m.recordsRepairedTotal.Collect(ch)
	m.httpRequestsTotal.Collect(ch)
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// FallbackUsed counts a verdict synthesized because stage failed
func (m *Metrics) FallbackUsed(stage string) {
	m.fallbacksTotal.WithLabelValues(stage).Inc()
}

// RecordsRepaired counts records rewritten by a repair pass
func (m *Metrics) RecordsRepaired(n int) {
	if n > 0 {
		m.recordsRepairedTotal.Add(float64(n))
	}
}

// RecordProviderCall counts one provider call and observes its duration
func (m *Metrics) RecordProviderCall(provider, operation string, err error, duration time.Duration) {
	m.providerCallsTotal.WithLabelValues(provider, operation, Outcome(err)).Inc()
	m.providerCallDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordHTTPRequest counts one served request
func (m *Metrics) RecordHTTPRequest(method, route, status string) {
	m.httpRequestsTotal.WithLabelValues(method, route, status).Inc()
}

// Outcome classifies err into an outcome label
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrProviderTimeout):
		return OutcomeTimeout
	case errors.Is(err, domain.ErrImageNotFound), errors.Is(err, domain.ErrProductNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrAnalysisParse):
		return OutcomeParseError
	}
	return OutcomeError
}

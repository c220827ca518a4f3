package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation outcomes used as metric labels.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Recorder receives one observation per Manager operation.
type Recorder interface {
	Observe(op, outcome string, elapsed time.Duration)
}

// NopRecorder discards all observations.
type NopRecorder struct{}

func (NopRecorder) Observe(string, string, time.Duration) {}

// Outcome classifies an operation error into a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrFlowchartNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrInvalidFlowchart):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// Metrics records operation counts and latencies in Prometheus.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowcharts_operations_total",
				Help: "Total number of flowchart operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowcharts_operation_duration_seconds",
				Help:    "Duration of flowchart operations",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"operation"},
		),
	}
	reg.MustRegister(m.operations, m.duration)
	return m
}

// Observe implements Recorder.
func (m *Metrics) Observe(op, outcome string, elapsed time.Duration) {
	m.operations.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Handler serves the metrics gathered by g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/iho/democredit/internal/domain"
)

const namespace = "democredit"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Engine metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	OperationAmount   *prometheus.HistogramVec

	// API metrics
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	HTTPInFlight   prometheus.Gauge
	RateLimitHits  *prometheus.CounterVec
	IdempotentHits *prometheus.CounterVec

	// Screening metrics
	ScreeningChecks *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter
}

// New creates metrics registered on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates metrics registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total balance operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of balance operations",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		OperationAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_amount",
				Help:      "Amounts of committed balance operations",
				Buckets:   []float64{5, 50, 500, 5000, 50000, 500000, 2000000},
			},
			[]string{"operation"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Requests rejected by the rate limiter",
			},
			[]string{"path"},
		),
		IdempotentHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "idempotency_hits_total",
				Help:      "Requests answered from the idempotency store",
			},
			[]string{"result"},
		),

		ScreeningChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "screening_checks_total",
				Help:      "Identity screening checks by result",
			},
			[]string{"result"},
		),

		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Outbox events published",
		}),
		OutboxErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_errors_total",
			Help:      "Outbox events that failed to publish",
		}),
	}
}

// RecordOperation implements usecase.OperationRecorder.
func (m *Metrics) RecordOperation(op domain.Operation, kind domain.Kind, amount decimal.Decimal, duration time.Duration) {
	outcome := string(kind)
	if kind == domain.KindNone {
		outcome = "success"
		m.OperationAmount.WithLabelValues(string(op)).Observe(amount.InexactFloat64())
	}

	m.Operations.WithLabelValues(string(op), outcome).Inc()
	m.OperationDuration.WithLabelValues(string(op)).Observe(duration.Seconds())
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRateLimited counts a request rejected by the rate limiter.
func (m *Metrics) RecordRateLimited(path string) {
	m.RateLimitHits.WithLabelValues(path).Inc()
}

// RecordIdempotency counts idempotency outcomes: replayed, in_flight or stored.
func (m *Metrics) RecordIdempotency(result string) {
	m.IdempotentHits.WithLabelValues(result).Inc()
}

// RecordScreening records the result of an identity check.
func (m *Metrics) RecordScreening(result string) {
	m.ScreeningChecks.WithLabelValues(result).Inc()
}

// RecordOutbox records a publish attempt.
func (m *Metrics) RecordOutbox(err error) {
	if err != nil {
		m.OutboxErrors.Inc()
		return
	}
	m.OutboxPublished.Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeCreated  = "created"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// FulfillmentMetrics records how order fulfillment runs end.
type FulfillmentMetrics struct {
	duration         *prometheus.HistogramVec
	fulfillments     *prometheus.CounterVec
	persistRetries   prometheus.Counter
	artifactFailures *prometheus.CounterVec
	mailFailures     *prometheus.CounterVec
}

// NewFulfillmentMetrics registers the fulfillment metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "opts_fulfillment_duration_seconds",
		Help:    "Duration of order fulfillment runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	fulfillments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "opts_fulfillments_total",
		Help: "Order fulfillment runs by outcome.",
	}, []string{"outcome"})
	persistRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "opts_order_persist_retries_total",
		Help: "Order writes redone after a broken database connection.",
	})
	artifactFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "opts_artifact_failures_total",
		Help: "Artifacts that could not be produced, by kind.",
	}, []string{"kind"})
	mailFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "opts_mail_failures_total",
		Help: "Emails that could not be delivered, by template.",
	}, []string{"template"})
	reg.MustRegister(duration, fulfillments, persistRetries, artifactFailures, mailFailures)
	return &FulfillmentMetrics{
		duration:         duration,
		fulfillments:     fulfillments,
		persistRetries:   persistRetries,
		artifactFailures: artifactFailures,
		mailFailures:     mailFailures,
	}
}

// Observe records one finished fulfillment run.
func (m *FulfillmentMetrics) Observe(outcome string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.duration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.fulfillments.WithLabelValues(outcome).Inc()
}

func (m *FulfillmentMetrics) IncPersistRetry() {
	if m == nil || m.persistRetries == nil {
		return
	}
	m.persistRetries.Inc()
}

func (m *FulfillmentMetrics) IncArtifactFailure(kind string) {
	if m == nil || m.artifactFailures == nil {
		return
	}
	m.artifactFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *FulfillmentMetrics) IncMailFailure(template string) {
	if m == nil || m.mailFailures == nil {
		return
	}
	m.mailFailures.WithLabelValues(normalizeLabel(template)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

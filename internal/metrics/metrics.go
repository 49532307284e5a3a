// Package metrics provides Prometheus metrics for the alarm relay.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	namespace = "alarmlog"
)

// Invocation outcomes.
const (
	OutcomeNoRecords = "no_records"
	OutcomeNoLogs    = "no_logs"
	OutcomeDone      = "done"
	OutcomeFailed    = "failed"
)

// Delivery results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds the relay counters on a private registry, so a process can
// push exactly these series to a Pushgateway.
type Metrics struct {
	Registry *prometheus.Registry

	// InvocationsTotal counts invocations by outcome.
	InvocationsTotal *prometheus.CounterVec

	// LogEventsTotal counts log events retrieved for alarms.
	LogEventsTotal prometheus.Counter

	// DeliveriesTotal counts Slack posts by result.
	DeliveriesTotal *prometheus.CounterVec

	// CredentialsMissingTotal counts invocations that skipped delivery for lack of credentials.
	CredentialsMissingTotal prometheus.Counter
}

// New creates and registers the relay metrics.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		InvocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Total number of relay invocations by outcome",
			},
			[]string{"outcome"},
		),
		LogEventsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "logs",
				Name:      "events_total",
				Help:      "Total log events retrieved for alarms",
			},
		),
		DeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "slack",
				Name:      "deliveries_total",
				Help:      "Total Slack messages posted by result",
			},
			[]string{"result"},
		),
		CredentialsMissingTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "slack",
				Name:      "credentials_missing_total",
				Help:      "Invocations that skipped delivery because credentials were not configured",
			},
		),
	}

	m.Registry.MustRegister(
		m.InvocationsTotal,
		m.LogEventsTotal,
		m.DeliveriesTotal,
		m.CredentialsMissingTotal,
	)
	return m
}

// RecordInvocation increments the invocation counter for outcome.
func (m *Metrics) RecordInvocation(outcome string) {
	m.InvocationsTotal.WithLabelValues(outcome).Inc()
}

// RecordDelivery increments the delivery counter.
func (m *Metrics) RecordDelivery(ok bool) {
	if ok {
		m.DeliveriesTotal.WithLabelValues(ResultSuccess).Inc()
		return
	}
	m.DeliveriesTotal.WithLabelValues(ResultFailure).Inc()
}

// Push sends the registry to a Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

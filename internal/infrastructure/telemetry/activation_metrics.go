package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Activation outcomes recorded by ActivationMetrics
const (
	OutcomeActive   = "active"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// ErrMeterNil is returned when constructing instruments without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// ActivationMetrics counts connection activations and their durations
type ActivationMetrics struct {
	total    metric.Int64Counter
	duration metric.Float64Histogram
	reaped   metric.Int64Counter
}

// NewActivationMetrics creates the activation instruments on meter
func NewActivationMetrics(meter metric.Meter) (*ActivationMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	total, err := meter.Int64Counter("llmstack_connection_activations_total",
		metric.WithDescription("Connection activations by type and outcome"),
		metric.WithUnit("{activations}"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("llmstack_connection_activation_duration_seconds",
		metric.WithDescription("Time spent in the browser login flow"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 2.5, 5, 10, 20, 30, 60, 120),
	)
	if err != nil {
		return nil, err
	}
	reaped, err := meter.Int64Counter("llmstack_connection_stale_activations_total",
		metric.WithDescription("Connections failed after being left CONNECTING"),
		metric.WithUnit("{connections}"),
	)
	if err != nil {
		return nil, err
	}
	return &ActivationMetrics{total: total, duration: duration, reaped: reaped}, nil
}

// RecordActivation records one finished activation. Nil receivers are no-ops.
func (m *ActivationMetrics) RecordActivation(ctx context.Context, typeKey, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("connection.type", typeKey),
		attribute.String("outcome", outcome),
	)
	m.total.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordReaped records connections failed by the stale activation sweep
func (m *ActivationMetrics) RecordReaped(ctx context.Context, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.reaped.Add(ctx, n)
}

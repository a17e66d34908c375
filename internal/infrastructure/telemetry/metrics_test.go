package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestActivationMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewActivationMetrics(provider.Meter("test"))
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordActivation(ctx, "linkedin/web_login", OutcomeActive, 3*time.Second)
	m.RecordActivation(ctx, "linkedin/web_login", OutcomeActive, 4*time.Second)
	m.RecordActivation(ctx, "linkedin/web_login", OutcomeRejected, time.Second)
	m.RecordReaped(ctx, 0)
	m.RecordReaped(ctx, 2)

	data := collect(t, reader)

	total, ok := data["llmstack_connection_activations_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	byOutcome := map[string]int64{}
	for _, dp := range total.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("outcome"))
		byOutcome[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{OutcomeActive: 2, OutcomeRejected: 1}, byOutcome)

	hist, ok := data["llmstack_connection_activation_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.EqualValues(t, 3, count)

	reaped, ok := data["llmstack_connection_stale_activations_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, reaped.DataPoints, 1)
	assert.EqualValues(t, 2, reaped.DataPoints[0].Value)
}

func TestActivationMetrics_NilSafe(t *testing.T) {
	var m *ActivationMetrics
	assert.NotPanics(t, func() {
		m.RecordActivation(context.Background(), "x", OutcomeError, time.Second)
		m.RecordReaped(context.Background(), 1)
	})

	_, err := NewActivationMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("llmstack"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

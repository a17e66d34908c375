package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type exportedRecord struct {
	body     string
	severity otellog.Severity
}

type memLogExporter struct {
	mu      sync.Mutex
	records []exportedRecord
}

func (e *memLogExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, exportedRecord{body: r.Body().AsString(), severity: r.Severity()})
	}
	return nil
}

func (e *memLogExporter) Shutdown(context.Context) error   { return nil }
func (e *memLogExporter) ForceFlush(context.Context) error { return nil }

func (e *memLogExporter) bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, r.body)
	}
	return out
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	observed, logs := observer.New(zapcore.InfoLevel)
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{Enabled: false}, zap.New(observed))
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("OTEL log export disabled").Len())

	assert.False(t, lp.Core(zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))

	base := zap.NewNop()
	assert.Same(t, base, lp.Bridge(base, zapcore.InfoLevel))
}

func TestLoggerProvider_Bridge(t *testing.T) {
	exporter := &memLogExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	lp := newLoggerProviderWith(provider, LogsConfig{Enabled: true, ServiceName: "llmstack"}, zap.NewNop())
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

	observed, local := observer.New(zapcore.DebugLevel)
	log := lp.Bridge(zap.New(observed), zapcore.InfoLevel)

	log.Debug("cookie refresh skipped")
	log.Info("connection activated", zap.String("connection_id", "abc"))
	log.Warn("login rejected")

	assert.Equal(t, 3, local.Len(), "local core keeps every entry")
	assert.Equal(t, []string{"connection activated", "login rejected"}, exporter.bodies())

	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	assert.Equal(t, otellog.SeverityWarn, exporter.records[1].severity)
}

func TestLevelFilterCore(t *testing.T) {
	observed, logs := observer.New(zapcore.DebugLevel)
	filtered := &levelFilterCore{Core: observed, minLevel: zapcore.WarnLevel}

	assert.True(t, filtered.Enabled(zapcore.WarnLevel))
	assert.True(t, filtered.Enabled(zapcore.ErrorLevel))
	assert.False(t, filtered.Enabled(zapcore.InfoLevel))

	log := zap.New(filtered.With([]zapcore.Field{zap.String("service", "test")}))
	log.Info("info")
	log.Warn("warn")

	all := logs.All()
	require.Len(t, all, 1)
	assert.Equal(t, "warn", all[0].Message)
	assert.Equal(t, "test", all[0].ContextMap()["service"])
}

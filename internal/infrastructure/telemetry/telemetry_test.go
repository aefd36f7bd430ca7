package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/mrops-br/estoque-api/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerInjectsTraceContextAndRoute(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.OTLPConfig{ServiceName: "estoque-test", Environment: "test"}
	telem, err := NewNoOpTelemetry(cfg, slog.LevelInfo, &buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = telem.Shutdown(context.Background()) })

	buf.Reset()
	ctx, span := telem.TracerProvider.Tracer("test").Start(context.Background(), "op")
	ctx = WithHTTPRoute(ctx, "/api/products/{id}")
	telem.Logger.InfoContext(ctx, "hello")
	span.End()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "estoque-test", record["service.name"])
	assert.Equal(t, span.SpanContext().TraceID().String(), record["trace_id"])
	assert.Equal(t, "/api/products/{id}", record["http.route"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.OTLPConfig{ServiceName: "estoque-test"}
	telem, err := NewNoOpTelemetry(cfg, slog.LevelWarn, &buf)
	require.NoError(t, err)

	telem.Logger.Info("hidden")
	telem.Logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "shown"))
}

func TestRegistryGathersOTelMetrics(t *testing.T) {
	var buf bytes.Buffer
	telem, err := NewNoOpTelemetry(&config.OTLPConfig{ServiceName: "estoque-test"}, slog.LevelError, &buf)
	require.NoError(t, err)

	counter, err := telem.MeterProvider.Meter("test").Int64Counter("inventory.test.total")
	require.NoError(t, err)
	counter.Add(context.Background(), 2)

	families, err := telem.Registry.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "inventory_test_total") {
			found = true
		}
	}
	assert.True(t, found, "expected OTel counter in Prometheus registry")
}

func TestHTTPRouteFromContext(t *testing.T) {
	assert.Empty(t, HTTPRouteFromContext(context.Background()))
	assert.Equal(t, "/x", HTTPRouteFromContext(WithHTTPRoute(context.Background(), "/x")))
}

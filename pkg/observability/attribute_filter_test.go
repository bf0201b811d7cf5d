package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/codechurn/pkg/observability"
)

func filteredProvider(logger *slog.Logger) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	filter := observability.NewAttributeFilter(sdktrace.NewSimpleSpanProcessor(exporter), logger)

	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(filter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), exporter
}

func TestAttributeFilter_AllowsRepositoryKeys(t *testing.T) {
	t.Parallel()

	tp, exporter := filteredProvider(nil)

	_, span := tp.Tracer("test").Start(context.Background(), "churn.repository")
	span.SetAttributes(
		attribute.String("repository.name", "alpha"),
		attribute.String("repository.state", "done"),
		attribute.String("commit.hash", "abc123"),
		attribute.Int("http.response.status_code", 200),
		attribute.String("error.type", "timeout"),
	)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	attrs := spanAttrMap(spans[0])
	assert.Equal(t, "alpha", attrs["repository.name"])
	assert.Equal(t, "done", attrs["repository.state"])
	assert.Equal(t, "abc123", attrs["commit.hash"])
	assert.Equal(t, int64(200), attrs["http.response.status_code"])
	assert.Equal(t, "timeout", attrs["error.type"])
}

func TestAttributeFilter_BlocksIdentities(t *testing.T) {
	t.Parallel()

	tp, exporter := filteredProvider(nil)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.SetAttributes(
		attribute.String("commit.author", "alice@example.com"),
		attribute.String("author", "bob@example.com"),
		attribute.String("email", "carol@example.com"),
		attribute.String("user.id", "12345"),
		attribute.String("upload.token", "secret"),
		attribute.String("authorization", "Bearer secret"),
		attribute.String("unlisted", "x"),
		attribute.String("repository.input", "/srv/alpha"),
	)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	attrs := spanAttrMap(spans[0])
	assert.Len(t, attrs, 1)
	assert.Equal(t, "/srv/alpha", attrs["repository.input"])
}

func TestAttributeFilter_WarnsWithLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	tp, _ := filteredProvider(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.SetAttributes(attribute.String("user.secret", "val"))
	span.End()

	assert.Contains(t, buf.String(), "user.secret")
	assert.Contains(t, buf.String(), "blocked")
}

func TestAttributeFilter_ShutdownAndFlush(t *testing.T) {
	t.Parallel()

	tp, _ := filteredProvider(nil)

	require.NoError(t, tp.ForceFlush(context.Background()))
	require.NoError(t, tp.Shutdown(context.Background()))
}

func spanAttrMap(s tracetest.SpanStub) map[string]any {
	m := make(map[string]any, len(s.Attributes))
	for _, a := range s.Attributes {
		m[string(a.Key)] = a.Value.AsInterface()
	}

	return m
}

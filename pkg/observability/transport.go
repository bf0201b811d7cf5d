package observability

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const httpStatusServerError = 500

// Transport is an [http.RoundTripper] that opens a client span per request,
// propagates W3C trace headers and records HTTPMetrics.
type Transport struct {
	base    http.RoundTripper
	tracer  trace.Tracer
	metrics *HTTPMetrics
}

// NewTransport wraps base. A nil base means http.DefaultTransport; nil
// metrics disables recording.
func NewTransport(base http.RoundTripper, tracer trace.Tracer, metrics *HTTPMetrics) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}

	return &Transport{base: base, tracer: tracer, metrics: metrics}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := t.tracer.Start(req.Context(), req.Method+" "+req.URL.Host,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(req.Method),
			attribute.String("http.host", req.URL.Host),
		),
	)
	defer span.End()

	req = req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	if err != nil {
		t.metrics.RecordRequest(ctx, req.Method, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("round trip: %w", err)
	}

	t.metrics.RecordRequest(ctx, req.Method, resp.StatusCode, time.Since(start))
	span.SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))

	if resp.StatusCode >= httpStatusServerError {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	return resp, nil
}

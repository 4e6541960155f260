package tracing

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Transport wraps an http.RoundTripper with one client span per request.
type Transport struct {
	Base   http.RoundTripper
	Tracer trace.Tracer
}

// NewTransport returns base wrapped with spans from tracer. A nil tracer
// returns base unchanged.
func NewTransport(base http.RoundTripper, tracer trace.Tracer) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if tracer == nil {
		return base
	}
	return &Transport{Base: base, Tracer: tracer}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := t.Tracer.Start(req.Context(), SpanHTTPPrefix+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrHTTPMethod, req.Method),
			attribute.String(AttrHTTPPath, req.URL.Path),
		),
	)
	defer span.End()

	resp, err := t.Base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int(AttrHTTPStatus, resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("status %d", resp.StatusCode))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return resp, nil
}

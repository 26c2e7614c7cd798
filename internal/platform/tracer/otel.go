package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "arefa/export"

// OTelTracer starts spans on an OpenTelemetry tracer.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTel uses t, or the global provider's tracer when t is nil.
func NewOTel(t trace.Tracer) *OTelTracer {
	if t == nil {
		t = otel.Tracer(instrumentationName)
	}
	return &OTelTracer{tracer: t}
}

func (o *OTelTracer) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	ctx, span := o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, otelSpan{span}
}

type otelSpan struct{ trace.Span }

func (s otelSpan) End(err error) {
	if err != nil {
		s.Span.RecordError(err)
		s.Span.SetStatus(codes.Error, err.Error())
	}
	s.Span.End()
}

func (s otelSpan) SetAttributes(attrs ...Attribute) { s.Span.SetAttributes(attrs...) }

func (s otelSpan) AddEvent(name string, attrs ...Attribute) {
	s.Span.AddEvent(name, trace.WithAttributes(attrs...))
}

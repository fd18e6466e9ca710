// Copyright © 2024 The ELPS authors

package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ContextOpenTelemetryTracerKey looks up a parent tracer name from a context key.
	ContextOpenTelemetryTracerKey = "otelParentTracer"

	defaultTracerName = "tdl"
)

type otelTracer struct {
	name string
}

// NewOpenTelemetry returns a Tracer creating spans through the global
// OpenTelemetry tracer provider. The tracer name defaults to "tdl" and may
// be overridden per context with ContextOpenTelemetryTracerKey.
func NewOpenTelemetry(name string) Tracer {
	if name == "" {
		name = defaultTracerName
	}
	return &otelTracer{name: name}
}

func (t *otelTracer) contextTracer(ctx context.Context) trace.Tracer {
	tracerName, ok := ctx.Value(ContextOpenTelemetryTracerKey).(string)
	if !ok {
		tracerName = t.name
	}
	return otel.GetTracerProvider().Tracer(tracerName)
}

func (t *otelTracer) Start(ctx context.Context, op string, at Location) (context.Context, func()) {
	ctx, span := t.contextTracer(ctx).Start(ctx, label(op, at))
	attrs := []attribute.KeyValue{
		semconv.CodeFunction(op),
	}
	if at.Module != "" {
		attrs = append(attrs, semconv.CodeNamespace(at.Module))
	}
	if at.File != "" {
		attrs = append(attrs, semconv.CodeFilepath(at.File))
	}
	if at.Offset >= 0 {
		attrs = append(attrs, attribute.Int("tdl.offset", at.Offset))
	}
	span.SetAttributes(attrs...)
	return ctx, func() { span.End() }
}

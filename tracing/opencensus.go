// Copyright © 2024 The ELPS authors

package tracing

import (
	"context"

	"go.opencensus.io/trace"
)

type ocTracer struct{}

// NewOpenCensus returns a Tracer creating OpenCensus spans. Spans reach the
// exporters registered with trace.RegisterExporter.
func NewOpenCensus() Tracer {
	return ocTracer{}
}

func (ocTracer) Start(ctx context.Context, op string, at Location) (context.Context, func()) {
	ctx, span := trace.StartSpan(ctx, label(op, at))
	attrs := []trace.Attribute{trace.StringAttribute("op", op)}
	if at.File != "" {
		attrs = append(attrs, trace.StringAttribute("file", at.File))
	}
	if at.Offset >= 0 {
		attrs = append(attrs, trace.Int64Attribute("offset", int64(at.Offset)))
	}
	span.AddAttributes(attrs...)
	return ctx, span.End
}

// Copyright © 2024 The ELPS authors

// Package tracing annotates engine operations (reparse, check, rebuild,
// emit) with spans. Implementations forward to OpenTelemetry, OpenCensus or
// pprof goroutine labels.
package tracing

import "context"

// Location identifies what an operation works on.
type Location struct {
	File   string
	Module string
	// Offset is the buffer offset of an edit, -1 when not applicable.
	Offset int
}

// Tracer starts a span for op. The returned function ends it and must be
// called exactly once.
type Tracer interface {
	Start(ctx context.Context, op string, at Location) (context.Context, func())
}

// Nop is a Tracer that records nothing.
var Nop Tracer = nopTracer{}

type nopTracer struct{}

func (nopTracer) Start(ctx context.Context, _ string, _ Location) (context.Context, func()) {
	return ctx, func() {}
}

// label renders op against loc for span names.
func label(op string, loc Location) string {
	if loc.Module == "" {
		return op
	}
	return op + ":" + loc.Module
}

// Copyright © 2024 The ELPS authors

package tracing

import (
	"context"
	"runtime/pprof"
)

type pprofTracer struct{}

// NewPprof returns a Tracer that labels the current goroutine with the
// running operation so CPU profiles can be split by op and module. It does
// not start profiling.
func NewPprof() Tracer {
	return pprofTracer{}
}

func (pprofTracer) Start(ctx context.Context, op string, at Location) (context.Context, func()) {
	parent := ctx
	ctx = pprof.WithLabels(ctx, pprof.Labels("op", op, "module", at.Module))
	pprof.SetGoroutineLabels(ctx)
	return ctx, func() { pprof.SetGoroutineLabels(parent) }
}

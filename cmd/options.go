// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	octrace "go.opencensus.io/trace"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/luthersystems/tdl/diagnostic"
	"github.com/luthersystems/tdl/tracing"
	"github.com/luthersystems/tdl/workspace"
)

// errReported is returned by commands whose failure was already shown to
// the user.
var errReported = errors.New("diagnostics reported")

// newLogger returns a logger writing to stderr at the configured level.
func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		level = logrus.WarnLevel
	}
	l.SetLevel(level)
	return l
}

func colorMode() diagnostic.ColorMode {
	mode, ok := diagnostic.ParseColorMode(viper.GetString("color"))
	if !ok {
		return diagnostic.ColorAuto
	}
	return mode
}

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{
		Color: colorMode(),
		Width: diagnostic.TerminalWidth(os.Stderr),
	}
}

// newTracer returns the tracer selected by the trace setting. Finished
// spans are logged at debug level. The returned function flushes them.
func newTracer(log *logrus.Logger) (tracing.Tracer, func(), error) {
	switch kind := viper.GetString("trace"); kind {
	case "":
		return tracing.Nop, func() {}, nil
	case "otel":
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(&spanLogger{log: log}))
		otel.SetTracerProvider(tp)
		return tracing.NewOpenTelemetry(""), func() { _ = tp.Shutdown(context.Background()) }, nil
	case "opencensus":
		octrace.ApplyConfig(octrace.Config{DefaultSampler: octrace.AlwaysSample()})
		e := &spanLogger{log: log}
		octrace.RegisterExporter(e)
		return tracing.NewOpenCensus(), func() { octrace.UnregisterExporter(e) }, nil
	case "pprof":
		return tracing.NewPprof(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown tracer %q", kind)
	}
}

// spanLogger exports finished spans of either tracing system to a logger.
type spanLogger struct {
	log *logrus.Logger
}

func (s *spanLogger) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, sp := range spans {
		s.log.WithFields(logrus.Fields{
			"span":     sp.Name(),
			"duration": sp.EndTime().Sub(sp.StartTime()),
		}).Debug("trace")
	}
	return nil
}

func (s *spanLogger) Shutdown(context.Context) error { return nil }

func (s *spanLogger) ExportSpan(sd *octrace.SpanData) {
	s.log.WithFields(logrus.Fields{
		"span":     sd.Name,
		"duration": sd.EndTime.Sub(sd.StartTime),
	}).Debug("trace")
}

// newWorkspace returns a workspace configured from the settings. The
// returned function must be called when the workspace is no longer used.
func newWorkspace(log *logrus.Logger) (*workspace.Workspace, func(), error) {
	tracer, flush, err := newTracer(log)
	if err != nil {
		return nil, nil, err
	}
	ws := workspace.New(
		workspace.WithLogger(log),
		workspace.WithJobs(viper.GetInt("jobs")),
		workspace.WithTracer(tracer),
	)
	return ws, flush, nil
}

// loadProject opens the sources of the manifest governing dir, if any, so
// imports of modules not named on the command line resolve.
func loadProject(ctx context.Context, ws *workspace.Workspace, dir string) (*workspace.Manifest, error) {
	path, ok := workspace.FindManifest(dir)
	if !ok {
		return nil, nil
	}
	m, err := workspace.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return m, ws.LoadManifest(ctx, m)
}

// openModule opens file, and the project around it, in ws. It returns the
// absolute path of file and the project manifest, if any.
func openModule(ctx context.Context, ws *workspace.Workspace, file string) (string, *workspace.Manifest, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", nil, err
	}
	m, err := loadProject(ctx, ws, filepath.Dir(abs))
	if err != nil {
		return "", nil, err
	}
	if err := ws.LoadFiles(ctx, []string{abs}); err != nil {
		return "", nil, err
	}
	return abs, m, nil
}

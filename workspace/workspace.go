// Copyright © 2024 The ELPS authors

// Package workspace coordinates the modules of a project: it applies
// edits through the incremental reparser, falls back to full rebuilds when
// recovery requires it and checks modules in parallel against a shared
// export table.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/luthersystems/tdl/analysis"
	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/emit"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/source"
	"github.com/luthersystems/tdl/tracing"
)

var (
	// ErrNotOpen is returned for operations on files that are not open.
	ErrNotOpen = errors.New("module not open")
	// ErrNeedsRebuild is the reason of an edit outcome when the module
	// will be parsed from scratch by the next check.
	ErrNeedsRebuild = errors.New("module needs a full rebuild")
	// ErrNotChecked is returned by Emit when the module has been edited
	// since its last check.
	ErrNotChecked = errors.New("module not checked")
	// ErrHasErrors is returned by Emit for modules with error diagnostics.
	ErrHasErrors = errors.New("module has errors")
)

// Workspace holds the open modules of a project.
type Workspace struct {
	mu      sync.RWMutex
	modules map[string]*Module

	clock  *incr.Clock
	log    *logrus.Entry
	tracer tracing.Tracer
	jobs   int
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *logrus.Logger) Option {
	return func(w *Workspace) { w.log = logrus.NewEntry(l) }
}

// WithTracer sets the tracer used for reparse, rebuild, check and emit
// spans.
func WithTracer(t tracing.Tracer) Option {
	return func(w *Workspace) { w.tracer = t }
}

// WithJobs limits the number of modules checked concurrently. Values below
// one select the number of CPUs.
func WithJobs(n int) Option {
	return func(w *Workspace) { w.jobs = n }
}

// WithClock sets the clock stamping check passes.
func WithClock(c *incr.Clock) Option {
	return func(w *Workspace) { w.clock = c }
}

// New returns an empty workspace.
func New(opts ...Option) *Workspace {
	w := &Workspace{
		modules: make(map[string]*Module),
		tracer:  tracing.Nop,
	}
	for _, o := range opts {
		o(w)
	}
	if w.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		w.log = logrus.NewEntry(l)
	}
	if w.clock == nil {
		w.clock = incr.NewClock()
	}
	if w.jobs < 1 {
		w.jobs = runtime.NumCPU()
	}
	return w
}

// Open adds file with content text, replacing any module open under the
// same name.
func (w *Workspace) Open(file, text string) *Module {
	m := newModule(file, text, w.log)
	w.mu.Lock()
	w.modules[file] = m
	w.mu.Unlock()
	return m
}

// Close drops file from the workspace.
func (w *Workspace) Close(file string) {
	w.mu.Lock()
	m, ok := w.modules[file]
	delete(w.modules, file)
	w.mu.Unlock()
	if ok {
		// Supersede a check that may still be running.
		m.guard.Cancel()
	}
}

// Get returns the module open under file.
func (w *Workspace) Get(file string) (*Module, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	m, ok := w.modules[file]
	return m, ok
}

// Files returns the names of the open modules in lexical order.
func (w *Workspace) Files() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	files := make([]string, 0, len(w.modules))
	for f := range w.modules {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

func (w *Workspace) snapshot() []*Module {
	w.mu.RLock()
	defer w.mu.RUnlock()
	mods := make([]*Module, 0, len(w.modules))
	for _, m := range w.modules {
		mods = append(mods, m)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].File() < mods[j].File() })
	return mods
}

// FindModule returns the open module declaring name. When several do, the
// first in file order wins.
func (w *Workspace) FindModule(name string) (*Module, bool) {
	for _, m := range w.snapshot() {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// ApplyEdit applies e to file, inserting inserted. Any check of the module
// in flight is superseded. The damaged part of the tree is reparsed
// immediately; when that fails the module is marked for a full rebuild and
// the outcome is Failed with ErrNeedsRebuild as its reason. The error
// result is reserved for edits that cannot be applied to the buffer.
func (w *Workspace) ApplyEdit(ctx context.Context, file string, e incr.Edit, inserted string) (incr.Outcome, error) {
	m, ok := w.Get(file)
	if !ok {
		return incr.Outcome{}, fmt.Errorf("%s: %w", file, ErrNotOpen)
	}
	m.guard.Cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	_, end := w.tracer.Start(ctx, "reparse", tracing.Location{File: file, Module: m.tree.ModuleName(), Offset: e.Offset})
	defer end()
	return w.applyEdit(m, e, inserted)
}

// Replace sets the content of file to text as a single minimal edit.
func (w *Workspace) Replace(ctx context.Context, file, text string) (incr.Outcome, error) {
	m, ok := w.Get(file)
	if !ok {
		return incr.Outcome{}, fmt.Errorf("%s: %w", file, ErrNotOpen)
	}
	m.guard.Cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	e := source.Diff(m.buf.Text(), text)
	_, end := w.tracer.Start(ctx, "reparse", tracing.Location{File: file, Module: m.tree.ModuleName(), Offset: e.Offset})
	defer end()
	return w.applyEdit(m, e, text[e.Offset:e.Offset+e.Inserted])
}

func (w *Workspace) applyEdit(m *Module, e incr.Edit, inserted string) (incr.Outcome, error) {
	if err := m.buf.Apply(e, inserted); err != nil {
		return incr.Outcome{}, err
	}
	log := m.log.WithField("edit", e.String())
	if m.state == NeedsRebuild || len(m.errs) > 0 {
		// A partial tree does not cover the text it was parsed from.
		m.state = NeedsRebuild
		return incr.Outcome{Kind: incr.Failed, Reason: ErrNeedsRebuild}, nil
	}
	rp := incr.NewReparser(m.buf.Text(), e, m.grammar,
		incr.WithBridges(m.checker.Bridges()),
		incr.WithLogger(log))
	out, err := rp.Reparse(m.tree)
	stats := rp.Stats()
	log = log.WithFields(logrus.Fields{
		"outcome":   out.Kind.String(),
		"relocated": stats.Relocated,
		"reparsed":  stats.Reparsed,
		"rebuilt":   stats.Rebuilt,
	})
	if err != nil {
		rc := incr.Recovery{Bridges: m.checker.Bridges(), Log: log}
		if rc.Handle(m.tree, err) == incr.NeedsRebuild {
			m.state = NeedsRebuild
		}
		return out, nil
	}
	m.state = Dirty
	log.Debug("edit applied")
	return out, nil
}

// Rebuild parses file from scratch.
func (w *Workspace) Rebuild(ctx context.Context, file string) error {
	m, ok := w.Get(file)
	if !ok {
		return fmt.Errorf("%s: %w", file, ErrNotOpen)
	}
	m.guard.Cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	w.rebuild(ctx, m)
	return nil
}

func (w *Workspace) rebuild(ctx context.Context, m *Module) {
	_, end := w.tracer.Start(ctx, "rebuild", tracing.Location{File: m.File(), Module: m.tree.ModuleName(), Offset: -1})
	defer end()
	m.rebuild()
}

// Exports returns the export table of the open modules, keyed by module
// name. Modules that fail to declare a name are left out.
func (w *Workspace) Exports(ctx context.Context) map[string][]analysis.ExternalSymbol {
	exports := make(map[string][]analysis.ExternalSymbol)
	for _, m := range w.snapshot() {
		m.mu.Lock()
		if m.state == NeedsRebuild {
			w.rebuild(ctx, m)
		}
		name := m.tree.ModuleName()
		if _, dup := exports[name]; name != "" && !dup {
			syms := analysis.Exports(m.tree)
			if syms == nil {
				syms = []analysis.ExternalSymbol{}
			}
			exports[name] = syms
		}
		m.mu.Unlock()
	}
	return exports
}

// importDigest renders the part of the export table visible to tree so a
// change in an imported module can be detected.
func importDigest(tree *ast.Module, exports map[string][]analysis.ExternalSymbol) string {
	var names []string
	if tree.Defs != nil {
		for _, d := range tree.Defs.Defs {
			if imp, ok := d.(*ast.Import); ok && imp.Module != nil {
				names = append(names, imp.Module.Name)
			}
		}
	}
	sort.Strings(names)
	var b strings.Builder
	for i, name := range names {
		if i > 0 && names[i-1] == name {
			continue
		}
		syms, ok := exports[name]
		fmt.Fprintf(&b, "%s %t\n", name, ok)
		for _, sym := range syms {
			fmt.Fprintf(&b, "\t%s %s%s %s\n", sym.Kind, sym.Name, sym.Sig, sym.Type)
		}
	}
	return b.String()
}

// Check brings every module up to date and returns the published result
// of each, keyed by file. Modules are rebuilt first when needed, then
// checked concurrently against a common export table. A module whose check
// is superseded by a concurrent edit keeps its previous result.
//
// A module is given a new timestamp, and so checked in full, the first
// time it is checked and whenever the exports of the modules it imports
// change. Otherwise the pass reuses the module's timestamp and only the
// definitions invalidated by edits are checked again.
func (w *Workspace) Check(ctx context.Context) (map[string]*analysis.Result, error) {
	return w.CheckFiles(ctx, nil)
}

// CheckFiles is Check restricted to files. The export table still covers
// every open module. A nil files checks everything.
func (w *Workspace) CheckFiles(ctx context.Context, files []string) (map[string]*analysis.Result, error) {
	exports := w.Exports(ctx)
	mods := w.snapshot()
	if files != nil {
		want := make(map[string]bool, len(files))
		for _, f := range files {
			want[f] = true
		}
		n := 0
		for _, m := range mods {
			if want[m.File()] {
				mods[n] = m
				n++
			}
		}
		mods = mods[:n]
	}
	results := make([]*analysis.Result, len(mods))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.jobs)
	for i, m := range mods {
		g.Go(func() error {
			res, err := w.checkModule(ctx, m, exports)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string]*analysis.Result, len(mods))
	for i, m := range mods {
		if results[i] != nil {
			out[m.File()] = results[i]
		}
	}
	return out, nil
}

// Inputs returns what a check of file depends on: its text and the digest
// of the exports it imports from exports.
func (w *Workspace) Inputs(file string, exports map[string][]analysis.ExternalSymbol) (text, deps string, err error) {
	m, ok := w.Get(file)
	if !ok {
		return "", "", fmt.Errorf("%s: %w", file, ErrNotOpen)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.Text(), importDigest(m.tree, exports), nil
}

func (w *Workspace) checkModule(ctx context.Context, m *Module, exports map[string][]analysis.ExternalSymbol) (*analysis.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == NeedsRebuild {
		w.rebuild(ctx, m)
	}
	deps := importDigest(m.tree, exports)
	if m.state == Clean && m.deps == deps && m.result != nil {
		return m.result, nil
	}
	_, end := w.tracer.Start(ctx, "check", tracing.Location{File: m.File(), Module: m.tree.ModuleName(), Offset: -1})
	defer end()

	if m.stamp.IsZero() || m.deps != deps {
		m.stamp = w.clock.Next()
	}
	p := incr.NewPass(m.stamp, &m.guard)
	p.SkipSemantics = len(m.errs) > 0
	res, err := m.checker.Check(p, &analysis.Config{Exports: exports, Filename: m.File()})
	if errors.Is(err, incr.ErrSuperseded) {
		m.log.WithField("stamp", p.Stamp.String()).Debug("check superseded")
		return m.result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.File(), err)
	}
	res.Diagnostics = append(syntaxDiagnostics(m.errs), res.Diagnostics...)
	m.result = res
	m.state = Clean
	m.deps = deps
	m.log.WithFields(logrus.Fields{
		"stamp":       p.Stamp.String(),
		"checked":     res.Checked,
		"reused":      res.Reused,
		"diagnostics": len(res.Diagnostics),
	}).Debug("module checked")
	return res, nil
}

// Diagnostics returns the diagnostics of the last published check of
// file.
func (w *Workspace) Diagnostics(file string) ([]incr.Diagnostic, error) {
	m, ok := w.Get(file)
	if !ok {
		return nil, fmt.Errorf("%s: %w", file, ErrNotOpen)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.result == nil {
		return nil, nil
	}
	return m.result.Diagnostics, nil
}

// Emit generates Go source for file. The module must be clean and free of
// errors.
func (w *Workspace) Emit(ctx context.Context, file string, opts emit.Options) ([]byte, error) {
	m, ok := w.Get(file)
	if !ok {
		return nil, fmt.Errorf("%s: %w", file, ErrNotOpen)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.state != Clean || m.result == nil:
		return nil, fmt.Errorf("%s: %w", file, ErrNotChecked)
	case m.result.HasErrors():
		return nil, fmt.Errorf("%s: %w", file, ErrHasErrors)
	}
	_, end := w.tracer.Start(ctx, "emit", tracing.Location{File: file, Module: m.tree.ModuleName(), Offset: -1})
	defer end()
	return emit.Module(m.checker, m.result.Stamp, opts)
}

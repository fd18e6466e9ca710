// Copyright © 2024 The ELPS authors

package workspace

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/luthersystems/tdl/analysis"
	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/parser/rdparser"
	"github.com/luthersystems/tdl/parser/token"
	"github.com/luthersystems/tdl/source"
)

// State is the analysis state of a Module.
type State int

const (
	// Clean modules have a published result matching their text.
	Clean State = iota
	// Dirty modules were edited and reparsed since their last check.
	Dirty
	// NeedsRebuild modules must be parsed again from scratch before the
	// next check.
	NeedsRebuild
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case NeedsRebuild:
		return "needs-rebuild"
	default:
		return "unknown"
	}
}

// Module is one source buffer and its analysis state. Edits and checks of
// a module are serialized by its lock.
type Module struct {
	mu      sync.Mutex
	guard   incr.Guard
	buf     *source.Buffer
	grammar *rdparser.Grammar
	tree    *ast.Module
	checker *analysis.Checker
	errs    []error
	state   State
	result  *analysis.Result
	// stamp is the compilation timestamp of the module's passes.
	stamp incr.Timestamp
	// deps digests the imported exports the checker last saw.
	deps string
	log  *logrus.Entry
}

func newModule(file, text string, log *logrus.Entry) *Module {
	m := &Module{
		buf:     source.New(file, text),
		grammar: rdparser.NewGrammar(file),
	}
	m.log = log.WithFields(logrus.Fields{"file": file, "buffer": m.buf.ID.String()})
	m.rebuild()
	return m
}

// File returns the name the module was opened with.
func (m *Module) File() string { return m.buf.Name }

// Name returns the declared module name.
func (m *Module) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tree.ModuleName()
}

// State returns the current state.
func (m *Module) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// View is a consistent snapshot of a module, valid only inside the
// function passed to Module.View.
type View struct {
	Buffer      *source.Buffer
	Tree        *ast.Module
	Checker     *analysis.Checker
	Result      *analysis.Result
	ParseErrors []error
	State       State
}

// Fresh reports whether the published result matches the current text.
func (v *View) Fresh() bool {
	return v.State == Clean && v.Result != nil
}

// View calls fn with the module locked.
func (m *Module) View(fn func(v *View)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&View{
		Buffer:      m.buf,
		Tree:        m.tree,
		Checker:     m.checker,
		Result:      m.result,
		ParseErrors: m.errs,
		State:       m.state,
	})
}

// rebuild parses the whole buffer and starts over with a fresh checker.
// The caller holds m.mu.
func (m *Module) rebuild() {
	m.tree, m.errs = rdparser.ParseModule(m.buf.Name, m.buf.Text())
	m.checker = analysis.NewChecker(m.tree)
	m.state = Dirty
	m.log.WithField("errors", len(m.errs)).Debug("module rebuilt")
}

// syntaxDiagnostics converts parse errors to diagnostics.
func syntaxDiagnostics(errs []error) []incr.Diagnostic {
	var out []incr.Diagnostic
	for _, err := range errs {
		d := incr.Diagnostic{
			Severity: incr.SeverityError,
			Code:     analysis.CodeSyntax,
			Message:  err.Error(),
			At:       &incr.Span{},
		}
		var le *token.LocationError
		if errors.As(err, &le) {
			d.Message = le.Err.Error()
			if le.Source != nil {
				d.At = &incr.Span{Start: le.Source.Pos, End: le.Source.Pos}
			}
		}
		out = append(out, d)
	}
	return out
}

// Copyright © 2024 The ELPS authors

// Package analysis provides scope-aware semantic checking for tdl modules.
//
// A Checker is bound to one module tree. Each call to Check binds the
// module's names, reattaches the scope bridge of every function and then
// checks each definition through incr.Check, so definitions left untouched
// by an edit reuse the diagnostics of their last check. When the interface
// of the module changes (a name, a signature, a constant initializer or
// the exports of an imported module) every definition is checked again.
package analysis

import (
	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/scope"
)

// Config controls the behavior of the checker.
type Config struct {
	// Exports maps module names to their exported symbols. A module that
	// is present with no exports maps to an empty, non-nil slice.
	Exports map[string][]ExternalSymbol

	// Filename is the source file being checked.
	Filename string
}

// ExternalSymbol is a symbol exported by another module. It holds no
// reference to the other module's tree so it may be shared between
// goroutines.
type ExternalSymbol struct {
	Name   string
	Kind   scope.SymbolKind
	Module string
	Type   string
	Sig    *scope.Signature
	// Pos is the span of the declaring identifier in the exporting module.
	Pos incr.Span
}

// Result holds the output of one check.
type Result struct {
	Stamp       incr.Timestamp
	Diagnostics []incr.Diagnostic
	// Checked counts definitions checked during the pass, Reused those
	// whose diagnostics came from an earlier pass.
	Checked int
	Reused  int
}

// HasErrors reports whether any diagnostic is an error.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == incr.SeverityError {
			return true
		}
	}
	return false
}

// Exports lists the definitions of m visible to importers. It only reads
// the syntax tree and may run before m has been checked.
func Exports(m *ast.Module) []ExternalSymbol {
	if m == nil || m.Defs == nil {
		return nil
	}
	name := m.ModuleName()
	var out []ExternalSymbol
	for _, d := range m.Defs.Defs {
		id := d.DefName()
		if id == nil {
			continue
		}
		switch d := d.(type) {
		case *ast.Const:
			out = append(out, ExternalSymbol{
				Name:   id.Name,
				Kind:   scope.SymConst,
				Module: name,
				Type:   ast.TypeName(d.Type),
				Pos:    id.Span(),
			})
		case *ast.Function:
			sig := SignatureOf(d)
			out = append(out, ExternalSymbol{
				Name:   id.Name,
				Kind:   d.Kind.SymbolKind(),
				Module: name,
				Type:   sig.Return,
				Sig:    sig,
				Pos:    id.Span(),
			})
		}
	}
	return out
}

// SignatureOf derives the signature of fn from its declaration.
func SignatureOf(fn *ast.Function) *scope.Signature {
	sig := &scope.Signature{Return: ast.TypeName(fn.Return)}
	if fn.Params == nil {
		return sig
	}
	for _, p := range fn.Params.Params {
		param := scope.Param{
			Type: ast.TypeName(p.Type),
			Mode: p.Dir.Mode(),
			Lazy: p.Lazy,
		}
		if p.Name != nil {
			param.Name = p.Name.Name
		}
		sig.Params = append(sig.Params, param)
	}
	return sig
}

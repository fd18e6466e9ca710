// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/scope"
	"github.com/luthersystems/tdl/workspace"
)

// textDocumentDefinition handles the textDocument/definition request.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	m, sym, _ := s.symbolUnder(params.TextDocument.URI, params.Position)
	if sym == nil {
		return nil, nil
	}
	loc, ok := s.declLocation(m, sym)
	if !ok {
		return nil, nil
	}
	return loc, nil
}

// symbolUnder resolves the identifier at pos in the document at uri. It
// returns the module of the document, the symbol and the range of the
// identifier.
func (s *Server) symbolUnder(uri string, pos protocol.Position) (*workspace.Module, *scope.Symbol, protocol.Range) {
	doc := s.docs.Get(uri)
	if doc == nil {
		return nil, nil, protocol.Range{}
	}
	m, ok := s.ws.Get(doc.File)
	if !ok {
		return nil, nil, protocol.Range{}
	}
	var sym *scope.Symbol
	var rng protocol.Range
	m.View(func(v *workspace.View) {
		off, err := bufferOffset(v.Buffer, pos)
		if err != nil {
			return
		}
		var sp incr.Span
		sym, sp = symbolAt(v.Checker, v.Tree, off)
		if sym != nil {
			rng = lspRange(v.Buffer, sp)
		}
	})
	return m, sym, rng
}

// declLocation finds where sym, used in module m, is declared. Builtins
// have no location.
func (s *Server) declLocation(m *workspace.Module, sym *scope.Symbol) (protocol.Location, bool) {
	var loc protocol.Location
	found := false
	s.withDecl(m, sym, func(target *workspace.Module, v *workspace.View, decl incr.Node) {
		var sp incr.Span
		if sp, found = declSpan(decl); found {
			loc = protocol.Location{URI: s.uriFor(target.File()), Range: lspRange(v.Buffer, sp)}
		}
	})
	return loc, found
}

// withDecl calls fn with the module declaring sym locked. decl is the
// declaring node: a definition, parameter or variable, or the module
// itself for imports. fn is not called when the declaration is not open.
func (s *Server) withDecl(m *workspace.Module, sym *scope.Symbol, fn func(target *workspace.Module, v *workspace.View, decl incr.Node)) {
	target := m
	switch {
	case sym.Kind == scope.SymBuiltin:
		return
	case sym.Kind == scope.SymImport:
		other, ok := s.ws.FindModule(sym.Name)
		if !ok {
			return
		}
		target = other
	case sym.Module != "":
		other, ok := s.ws.FindModule(sym.Module)
		if !ok {
			return
		}
		target = other
	}
	target.View(func(v *workspace.View) {
		var decl incr.Node
		switch {
		case v.Tree == nil:
			return
		case sym.Kind == scope.SymImport:
			decl = v.Tree
		case sym.Module != "":
			if d := findDef(v.Tree, sym.Name); d != nil {
				decl = d
			}
		default:
			decl = sym.Decl
		}
		if decl != nil {
			fn(target, v, decl)
		}
	})
}

// uriFor returns the URI of the open document for file, or a file URI.
func (s *Server) uriFor(file string) string {
	for _, d := range s.docs.All() {
		if d.File == file {
			return d.URI
		}
	}
	return pathToURI(file)
}

// exportKey identifies an exported definition across modules.
type exportKey struct {
	module string
	name   string
}

// exportKeyOf returns the key of sym when it names a definition other
// modules can import. module is the name of the module sym was resolved
// in.
func exportKeyOf(module string, sym *scope.Symbol) (exportKey, bool) {
	switch {
	case sym.Module != "":
		return exportKey{module: sym.Module, name: sym.Name}, true
	case sym.Exported:
		return exportKey{module: module, name: sym.Name}, true
	}
	return exportKey{}, false
}

// moduleName reads the declared name of the tree in v.
func moduleName(v *workspace.View) string {
	if v.Tree == nil {
		return ""
	}
	return v.Tree.ModuleName()
}

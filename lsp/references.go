// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/tdl/astutil"
	"github.com/luthersystems/tdl/scope"
	"github.com/luthersystems/tdl/workspace"
)

// textDocumentReferences handles the textDocument/references request.
func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	m, sym, _ := s.symbolUnder(params.TextDocument.URI, params.Position)
	if sym == nil {
		return nil, nil
	}
	return s.references(m, sym, params.Context.IncludeDeclaration), nil
}

// references collects the uses of sym, resolved in module m. Uses of
// exported definitions are collected from every module of the workspace,
// matched by module and name.
func (s *Server) references(m *workspace.Module, sym *scope.Symbol, includeDecl bool) []protocol.Location {
	var locs []protocol.Location
	if includeDecl {
		if loc, ok := s.declLocation(m, sym); ok {
			locs = append(locs, loc)
		}
	}

	var home string
	m.View(func(v *workspace.View) { home = moduleName(v) })
	key, exported := exportKeyOf(home, sym)

	for _, file := range s.ws.Files() {
		other, ok := s.ws.Get(file)
		if !ok {
			continue
		}
		if other != m && !exported {
			continue
		}
		uri := s.uriFor(file)
		other.View(func(v *workspace.View) {
			if v.Tree == nil {
				return
			}
			name := moduleName(v)
			for _, r := range astutil.Refs(v.Tree) {
				if r.Symbol == nil {
					continue
				}
				match := r.Symbol == sym
				if !match && exported {
					k, ok := exportKeyOf(name, r.Symbol)
					match = ok && k == key
				}
				if match {
					locs = append(locs, protocol.Location{URI: uri, Range: lspRange(v.Buffer, r.Node.Span())})
				}
			}
		})
	}
	return locs
}

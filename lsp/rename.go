// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/tdl/parser/token"
	"github.com/luthersystems/tdl/scope"
)

// textDocumentPrepareRename validates that the symbol under the cursor
// is renameable and returns its range.
func (s *Server) textDocumentPrepareRename(_ *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
	_, sym, rng := s.symbolUnder(params.TextDocument.URI, params.Position)
	if sym == nil || !renameable(sym) {
		return nil, nil
	}
	return &protocol.RangeWithPlaceholder{Range: rng, Placeholder: sym.Name}, nil
}

// textDocumentRename handles the textDocument/rename request. Renaming an
// exported definition rewrites its uses in importing modules too.
func (s *Server) textDocumentRename(_ *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	m, sym, _ := s.symbolUnder(params.TextDocument.URI, params.Position)
	if sym == nil {
		return nil, fmt.Errorf("no symbol at position")
	}
	if !renameable(sym) {
		return nil, fmt.Errorf("cannot rename %s %s", sym.Kind, sym.Name)
	}
	if !validIdent(params.NewName) {
		return nil, fmt.Errorf("invalid identifier: %q", params.NewName)
	}

	changes := make(map[protocol.DocumentUri][]protocol.TextEdit)
	seen := make(map[protocol.Location]bool)
	for _, loc := range s.references(m, sym, true) {
		if seen[loc] {
			continue
		}
		seen[loc] = true
		changes[loc.URI] = append(changes[loc.URI], protocol.TextEdit{Range: loc.Range, NewText: params.NewName})
	}
	return &protocol.WorkspaceEdit{Changes: changes}, nil
}

func renameable(sym *scope.Symbol) bool {
	return sym.Kind != scope.SymBuiltin && sym.Kind != scope.SymImport
}

func validIdent(name string) bool {
	if name == "" || token.Lookup(name) != token.IDENT {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !isWordByte(c) || i == 0 && c >= '0' && c <= '9' {
			return false
		}
	}
	return true
}

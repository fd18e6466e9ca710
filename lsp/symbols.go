// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/source"
	"github.com/luthersystems/tdl/workspace"
)

// textDocumentDocumentSymbol handles the textDocument/documentSymbol
// request. It reads only the syntax tree, so it answers for modules that
// have not been checked yet.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	m, ok := s.ws.Get(doc.File)
	if !ok {
		return nil, nil
	}

	var symbols []protocol.DocumentSymbol
	m.View(func(v *workspace.View) {
		if v.Tree == nil || v.Tree.Defs == nil {
			return
		}
		for _, d := range v.Tree.Defs.Defs {
			if sym, ok := documentSymbol(v.Buffer, d); ok {
				symbols = append(symbols, sym)
			}
		}
	})
	return symbols, nil
}

func documentSymbol(b *source.Buffer, d ast.Def) (protocol.DocumentSymbol, bool) {
	id := d.DefName()
	if id == nil {
		return protocol.DocumentSymbol{}, false
	}
	sym := protocol.DocumentSymbol{
		Name:           id.Name,
		Range:          lspRange(b, d.Span()),
		SelectionRange: lspRange(b, id.Span()),
	}
	switch d := d.(type) {
	case *ast.Import:
		sym.Kind = protocol.SymbolKindModule
		sym.Detail = strPtr("import")
	case *ast.Const:
		sym.Kind = protocol.SymbolKindConstant
		sym.Detail = strPtr(ast.TypeName(d.Type))
	case *ast.Function:
		sym.Kind = mapSymbolKind(d.Kind.SymbolKind())
		detail := d.Kind.String()
		if d.Return != nil {
			detail += " return " + ast.TypeName(d.Return)
		}
		sym.Detail = &detail
		if d.Params != nil {
			for _, p := range d.Params.Params {
				if p.Name == nil {
					continue
				}
				sym.Children = append(sym.Children, protocol.DocumentSymbol{
					Name:           p.Name.Name,
					Detail:         strPtr(ast.TypeName(p.Type)),
					Kind:           protocol.SymbolKindVariable,
					Range:          lspRange(b, p.Span()),
					SelectionRange: lspRange(b, p.Name.Span()),
				})
			}
		}
	}
	return sym, true
}

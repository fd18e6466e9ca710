// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"fortio.org/safecast"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/tdl/analysis"
	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/scope"
	"github.com/luthersystems/tdl/source"
)

// safeUint converts a non-negative int to protocol.UInteger, clamping
// values out of range to zero.
func safeUint(n int) protocol.UInteger {
	u, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0
	}
	return u
}

// lspPosition converts a byte offset to a position counted in UTF-16 code
// units.
func lspPosition(b *source.Buffer, offset int) protocol.Position {
	p := b.PositionUTF16(offset)
	return protocol.Position{Line: safeUint(p.Line), Character: safeUint(p.Col)}
}

func lspRange(b *source.Buffer, sp incr.Span) protocol.Range {
	return protocol.Range{Start: lspPosition(b, sp.Start), End: lspPosition(b, sp.End)}
}

// bufferOffset converts a client position to a byte offset.
func bufferOffset(b *source.Buffer, pos protocol.Position) (int, error) {
	return b.OffsetUTF16(source.Position{Line: int(pos.Line), Col: int(pos.Character)})
}

// symbolAt finds the symbol referenced or declared by the identifier at
// offset. It returns the symbol and the span of the identifier.
func symbolAt(c *analysis.Checker, tree *ast.Module, offset int) (*scope.Symbol, incr.Span) {
	if c == nil || tree == nil {
		return nil, incr.Span{}
	}
	path := ast.PathAt(tree, offset)
	if len(path) == 0 {
		return nil, incr.Span{}
	}
	switch n := path[len(path)-1].(type) {
	case *ast.Name:
		return n.Ref, n.Span()
	case *ast.Ident:
		if len(path) < 2 {
			return nil, incr.Span{}
		}
		switch p := path[len(path)-2].(type) {
		case *ast.Call:
			return p.Ref, n.Span()
		case *ast.AssignStmt:
			return p.Ref, n.Span()
		case *ast.Const, *ast.Function, *ast.Param, *ast.VarStmt, *ast.Import:
			return declared(c, offset, n.Name, p), n.Span()
		}
	}
	return nil, incr.Span{}
}

// declared finds the symbol decl introduces, searching outward from the
// scope at offset.
func declared(c *analysis.Checker, offset int, name string, decl incr.Node) *scope.Symbol {
	a := c.Arena()
	for id := a.At(c.Scope(), offset); id.Valid(); {
		s := a.Get(id)
		if s == nil {
			break
		}
		if sym := s.Symbols[name]; sym != nil && sym.Decl == decl {
			return sym
		}
		id = s.Parent
	}
	return nil
}

// declSpan returns the span of the identifier a declaration introduces.
func declSpan(decl incr.Node) (incr.Span, bool) {
	var id *ast.Ident
	switch d := decl.(type) {
	case *ast.Module:
		id = d.Name
	case ast.Def:
		id = d.DefName()
	case *ast.Param:
		id = d.Name
	case *ast.VarStmt:
		id = d.Name
	}
	if id == nil {
		return incr.Span{}, false
	}
	return id.Span(), true
}

// findDef returns the definition of tree named name.
func findDef(tree *ast.Module, name string) ast.Def {
	if tree == nil || tree.Defs == nil {
		return nil
	}
	for _, d := range tree.Defs.Defs {
		if _, ok := d.(*ast.Import); ok {
			continue
		}
		if id := d.DefName(); id != nil && id.Name == name {
			return d
		}
	}
	return nil
}

// mapSymbolKind converts a scope.SymbolKind to an LSP SymbolKind.
func mapSymbolKind(kind scope.SymbolKind) protocol.SymbolKind {
	switch kind {
	case scope.SymConst:
		return protocol.SymbolKindConstant
	case scope.SymFunction, scope.SymBuiltin:
		return protocol.SymbolKindFunction
	case scope.SymAltstep:
		return protocol.SymbolKindEvent
	case scope.SymTestcase:
		return protocol.SymbolKindMethod
	case scope.SymImport:
		return protocol.SymbolKindModule
	default:
		return protocol.SymbolKindVariable
	}
}

// mapCompletionItemKind converts a scope.SymbolKind to an LSP CompletionItemKind.
func mapCompletionItemKind(kind scope.SymbolKind) protocol.CompletionItemKind {
	switch kind {
	case scope.SymConst:
		return protocol.CompletionItemKindConstant
	case scope.SymFunction, scope.SymAltstep, scope.SymTestcase, scope.SymBuiltin:
		return protocol.CompletionItemKindFunction
	case scope.SymImport:
		return protocol.CompletionItemKindModule
	default:
		return protocol.CompletionItemKindVariable
	}
}

// symbolDetail renders the declaration of sym without its name.
func symbolDetail(sym *scope.Symbol) string {
	if sym.Sig != nil {
		return sym.Sig.String()
	}
	return sym.Type
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}

// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/scope"
	"github.com/luthersystems/tdl/workspace"
)

// textDocumentHover handles the textDocument/hover request.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	m, sym, rng := s.symbolUnder(params.TextDocument.URI, params.Position)
	if sym == nil {
		return nil, nil
	}

	var value string
	s.withDecl(m, sym, func(_ *workspace.Module, v *workspace.View, decl incr.Node) {
		if k, ok := decl.(*ast.Const); ok && v.Checker != nil {
			if cv := v.Checker.ConstValue(k); cv != nil {
				value = cv.ExactString()
			}
		}
	})

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: buildHoverContent(sym, value),
		},
		Range: &rng,
	}, nil
}

// buildHoverContent builds Markdown hover text for a symbol. value is the
// folded value of constants, or empty.
func buildHoverContent(sym *scope.Symbol, value string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** `%s`", sym.Kind, sym.Name)
	fmt.Fprintf(&sb, "\n\n```tdl\n%s\n```", declString(sym, value))
	if sym.Module != "" {
		fmt.Fprintf(&sb, "\n\n*Imported from module %s*", sym.Module)
	}
	return sb.String()
}

// declString renders sym the way it is declared in source.
func declString(sym *scope.Symbol, value string) string {
	switch sym.Kind {
	case scope.SymFunction, scope.SymAltstep, scope.SymTestcase:
		return sym.Kind.String() + " " + sym.Name + sym.Sig.String()
	case scope.SymBuiltin:
		return sym.Name + sym.Sig.String()
	case scope.SymConst:
		if value != "" {
			return fmt.Sprintf("const %s %s := %s", sym.Type, sym.Name, value)
		}
		return fmt.Sprintf("const %s %s", sym.Type, sym.Name)
	case scope.SymParameter:
		if p, ok := sym.Decl.(*ast.Param); ok {
			var b strings.Builder
			if p.Dir != ast.DirIn {
				b.WriteString(p.Dir.String() + " ")
			}
			if p.Lazy {
				b.WriteString("@lazy ")
			}
			fmt.Fprintf(&b, "%s %s", sym.Type, sym.Name)
			return b.String()
		}
	case scope.SymVariable:
		return fmt.Sprintf("var %s %s", sym.Type, sym.Name)
	case scope.SymImport:
		return "import from " + sym.Name
	}
	return fmt.Sprintf("%s %s", sym.Type, sym.Name)
}

// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/scope"
	"github.com/luthersystems/tdl/workspace"
)

// textDocumentSignatureHelp handles textDocument/signatureHelp requests.
// It finds the innermost call whose argument list holds the cursor and
// returns the signature of the resolved callee.
func (s *Server) textDocumentSignatureHelp(_ *glsp.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	m, ok := s.ws.Get(doc.File)
	if !ok {
		return nil, nil
	}

	var help *protocol.SignatureHelp
	m.View(func(v *workspace.View) {
		if v.Tree == nil {
			return
		}
		off, err := bufferOffset(v.Buffer, params.Position)
		if err != nil {
			return
		}
		call, argIdx := enclosingCall(v.Tree, off)
		if call == nil || call.Ref == nil {
			return
		}
		help = buildSignatureHelp(call.Ref, argIdx)
	})
	return help, nil
}

// enclosingCall returns the innermost call whose argument list contains
// offset and the index of the argument under it.
func enclosingCall(tree *ast.Module, offset int) (*ast.Call, int) {
	path := ast.PathAt(tree, offset)
	for i := len(path) - 1; i >= 0; i-- {
		call, ok := path[i].(*ast.Call)
		if !ok || call.Func == nil || offset <= call.Func.Span().End {
			continue
		}
		idx := 0
		for _, a := range call.Args {
			if a.Span().End < offset {
				idx++
			}
		}
		return call, idx
	}
	return nil, 0
}

func buildSignatureHelp(sym *scope.Symbol, argIdx int) *protocol.SignatureHelp {
	sig := protocol.SignatureInformation{
		Label: sym.Name + sym.Sig.String(),
	}
	if sym.Sig != nil && !sym.Sig.Variadic {
		for _, p := range sym.Sig.Params {
			sig.Parameters = append(sig.Parameters, protocol.ParameterInformation{Label: p.String()})
		}
	}
	help := &protocol.SignatureHelp{Signatures: []protocol.SignatureInformation{sig}}
	active := safeUint(argIdx)
	help.ActiveSignature = new(protocol.UInteger)
	if n := len(sig.Parameters); n > 0 && argIdx < n {
		help.ActiveParameter = &active
	}
	return help
}

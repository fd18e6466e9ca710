// Copyright © 2024 The ELPS authors

package lsp

import (
	"sort"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/tdl/parser/token"
	"github.com/luthersystems/tdl/scope"
	"github.com/luthersystems/tdl/source"
	"github.com/luthersystems/tdl/workspace"
)

// textDocumentCompletion handles the textDocument/completion request.
// Candidates are the symbols visible from the innermost scope at the
// cursor followed by the reserved words, both filtered by the word being
// typed.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	m, ok := s.ws.Get(doc.File)
	if !ok {
		return nil, nil
	}

	var items []protocol.CompletionItem
	m.View(func(v *workspace.View) {
		off, err := bufferOffset(v.Buffer, params.Position)
		if err != nil {
			return
		}
		prefix := wordBefore(v.Buffer, off)
		if v.Checker != nil {
			items = scopeCompletions(v.Checker.Arena(), v.Checker.Arena().At(v.Checker.Scope(), off), prefix)
		}
		for _, kw := range token.Keywords() {
			if strings.HasPrefix(kw, prefix) {
				items = append(items, protocol.CompletionItem{
					Label: kw,
					Kind:  ptrKind(protocol.CompletionItemKindKeyword),
				})
			}
		}
	})
	return items, nil
}

func scopeCompletions(a *scope.Arena, id scope.ID, prefix string) []protocol.CompletionItem {
	syms := a.Visible(id)
	sort.Slice(syms, func(i, j int) bool { return syms[i].Name < syms[j].Name })

	var items []protocol.CompletionItem
	for _, sym := range syms {
		if sym.Kind == scope.SymImport || !strings.HasPrefix(sym.Name, prefix) {
			continue
		}
		item := protocol.CompletionItem{
			Label: sym.Name,
			Kind:  ptrKind(mapCompletionItemKind(sym.Kind)),
		}
		if detail := symbolDetail(sym); detail != "" {
			item.Detail = &detail
		}
		items = append(items, item)
	}
	return items
}

// wordBefore returns the identifier characters immediately preceding
// offset.
func wordBefore(b *source.Buffer, offset int) string {
	text := b.Text()
	if offset > len(text) {
		offset = len(text)
	}
	start := offset
	for start > 0 && isWordByte(text[start-1]) {
		start--
	}
	return text[start:offset]
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func ptrKind(k protocol.CompletionItemKind) *protocol.CompletionItemKind {
	return &k
}

// Copyright © 2024 The ELPS authors

package lsp

import (
	"sort"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/tdl/workspace"
)

// workspaceSymbol handles the workspace/symbol request. The top-level
// definitions of every module in the workspace are searched, imports
// excluded.
func (s *Server) workspaceSymbol(_ *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	query := strings.ToLower(params.Query)
	files := s.ws.Files()
	sort.Strings(files)

	var results []protocol.SymbolInformation
	for _, file := range files {
		m, ok := s.ws.Get(file)
		if !ok {
			continue
		}
		uri := s.uriFor(file)
		m.View(func(v *workspace.View) {
			if v.Tree == nil || v.Tree.Defs == nil {
				return
			}
			container := moduleName(v)
			for _, d := range v.Tree.Defs.Defs {
				sym, ok := documentSymbol(v.Buffer, d)
				if !ok || sym.Kind == protocol.SymbolKindModule || !matchesQuery(sym.Name, query) {
					continue
				}
				info := protocol.SymbolInformation{
					Name:     sym.Name,
					Kind:     sym.Kind,
					Location: protocol.Location{URI: uri, Range: sym.SelectionRange},
				}
				if container != "" {
					info.ContainerName = strPtr(container)
				}
				results = append(results, info)
			}
		})
	}
	return results, nil
}

// matchesQuery performs case-insensitive substring matching. An empty query
// matches everything.
func matchesQuery(name, lowerQuery string) bool {
	if lowerQuery == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), lowerQuery)
}

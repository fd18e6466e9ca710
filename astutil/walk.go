// Copyright © 2024 The ELPS authors

// Package astutil provides shared AST walking utilities for tdl modules.
//
// These helpers are used by the language server and the emitter for
// traversing checked syntax trees.
package astutil

import (
	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/scope"
)

// Walk calls fn for every node in the tree, depth-first.
// parent is nil for root.
func Walk(root incr.Node, fn func(node, parent incr.Node, depth int)) {
	walkNode(root, nil, 0, fn)
}

func walkNode(node, parent incr.Node, depth int, fn func(incr.Node, incr.Node, int)) {
	if node == nil {
		return
	}
	fn(node, parent, depth)
	for _, child := range node.Children() {
		walkNode(child, node, depth+1, fn)
	}
}

// WalkCalls calls fn for every call in the tree.
func WalkCalls(root incr.Node, fn func(call *ast.Call, depth int)) {
	Walk(root, func(node, _ incr.Node, depth int) {
		if call, ok := node.(*ast.Call); ok {
			fn(call, depth)
		}
	})
}

// HeadName returns the name of the callee of call, or "".
func HeadName(call *ast.Call) string {
	if call == nil || call.Func == nil {
		return ""
	}
	return call.Func.Name
}

// ArgCount returns the number of arguments of call.
func ArgCount(call *ast.Call) int {
	if call == nil {
		return 0
	}
	return len(call.Args)
}

// Ref is a use of a symbol resolved by the checker.
type Ref struct {
	// Node is the identifier or name naming the symbol.
	Node   incr.Node
	Symbol *scope.Symbol
	// Write is set for assignment targets.
	Write bool
}

// Refs returns the resolved symbol uses below root in source order.
// Unresolved names are skipped.
func Refs(root incr.Node) []Ref {
	var out []Ref
	Walk(root, func(node, _ incr.Node, _ int) {
		switch n := node.(type) {
		case *ast.Name:
			if n.Ref != nil {
				out = append(out, Ref{Node: n, Symbol: n.Ref})
			}
		case *ast.Call:
			if n.Ref != nil && n.Func != nil {
				out = append(out, Ref{Node: n.Func, Symbol: n.Ref})
			}
		case *ast.AssignStmt:
			if n.Ref != nil && n.Target != nil {
				out = append(out, Ref{Node: n.Target, Symbol: n.Ref, Write: true})
			}
		}
	})
	return out
}

// Declared returns the names declared anywhere in m: definitions,
// parameters and local variables.
func Declared(m *ast.Module) map[string]bool {
	defs := make(map[string]bool)
	if m == nil {
		return defs
	}
	Walk(m, func(node, _ incr.Node, _ int) {
		var id *ast.Ident
		switch n := node.(type) {
		case *ast.Const:
			id = n.Name
		case *ast.Function:
			id = n.Name
		case *ast.Param:
			id = n.Name
		case *ast.VarStmt:
			id = n.Name
		}
		if id != nil {
			defs[id.Name] = true
		}
	})
	return defs
}

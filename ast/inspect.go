// Copyright © 2024 The ELPS authors

package ast

import "github.com/luthersystems/tdl/incr"

// PathAt returns the chain of nodes below root whose spans contain
// offset, outermost first. A node ending exactly at offset matches so a
// cursor placed after an identifier still finds it.
func PathAt(root incr.Node, offset int) []incr.Node {
	var path []incr.Node
	n := root
	for n != nil {
		sp := n.Span()
		if offset < sp.Start || offset > sp.End {
			break
		}
		path = append(path, n)
		var next incr.Node
		for _, c := range n.Children() {
			cs := c.Span()
			if offset >= cs.Start && offset <= cs.End {
				next = c
				if offset < cs.End {
					break
				}
			}
		}
		n = next
	}
	return path
}

// NodeAt returns the innermost node containing offset, or nil.
func NodeAt(root incr.Node, offset int) incr.Node {
	path := PathAt(root, offset)
	if len(path) == 0 {
		return nil
	}
	return path[len(path)-1]
}

// EnclosingDef returns the definition containing offset, or nil.
func EnclosingDef(m *Module, offset int) Def {
	for _, n := range PathAt(m, offset) {
		if d, ok := n.(Def); ok {
			return d
		}
	}
	return nil
}

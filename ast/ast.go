// Copyright © 2024 The ELPS authors

// Package ast declares the syntax tree of tdl modules.
//
// Every node embeds incr.Base. Nodes that can absorb an edit in place
// implement incr.Composite (definitions, parameters, statements) or
// incr.Sequence (definition lists, parameter lists, blocks). Expressions,
// identifiers and type references are leaves: their parent re-reads them
// through one of the Entry points below.
package ast

import "github.com/luthersystems/tdl/incr"

// Grammar entry points understood by the parser.
const (
	EntryIdent  incr.Entry = "identifier"
	EntryType   incr.Entry = "type"
	EntryExpr   incr.Entry = "expression"
	EntryParams incr.Entry = "parameters"
	EntryStmts  incr.Entry = "statements"
	EntryDefs   incr.Entry = "definitions"
	EntryModule incr.Entry = "module"
)

// Ident is an identifier in a declaring position.
type Ident struct {
	incr.Base
	Name string
}

func (*Ident) Children() []incr.Node { return nil }

// TypeRef names one of the predefined types.
type TypeRef struct {
	incr.Base
	Name string
}

func (*TypeRef) Children() []incr.Node { return nil }

// Basic type names.
const (
	TypeInteger    = "integer"
	TypeFloat      = "float"
	TypeBoolean    = "boolean"
	TypeCharstring = "charstring"
)

// TypeName returns the name of t, or the empty string for a nil t.
func TypeName(t *TypeRef) string {
	if t == nil {
		return ""
	}
	return t.Name
}

func asNodes[T incr.Node](els []T) []incr.Node {
	out := make([]incr.Node, len(els))
	for i, e := range els {
		out[i] = e
	}
	return out
}

func splice[T incr.Node](els []T, lo, hi int, nodes []incr.Node) []T {
	out := make([]T, 0, len(els)-(hi-lo)+len(nodes))
	out = append(out, els[:lo]...)
	for _, n := range nodes {
		out = append(out, n.(T))
	}
	return append(out, els[hi:]...)
}

// appendNonNil appends the nodes that are not nil interfaces or nil
// pointers.
func appendNonNil(out []incr.Node, nodes ...incr.Node) []incr.Node {
	for _, n := range nodes {
		if !isNil(n) {
			out = append(out, n)
		}
	}
	return out
}

func isNil(n incr.Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *Ident:
		return n == nil
	case *TypeRef:
		return n == nil
	case *Block:
		return n == nil
	case *IfStmt:
		return n == nil
	case *DefList:
		return n == nil
	case *ParamList:
		return n == nil
	}
	return false
}

// slotOf converts a possibly nil typed child into a slot node.
func slotOf(n incr.Node) incr.Node {
	if isNil(n) {
		return nil
	}
	return n
}

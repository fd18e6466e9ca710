// Copyright © 2024 The ELPS authors

package ast

import (
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/scope"
)

// Stmt is a statement of a block.
type Stmt interface {
	incr.Node
	stmtNode()
}

// Block is a braced run of statements.
type Block struct {
	incr.Base
	Stmts []Stmt
	// Scope is bound by the checker.
	Scope scope.ID
}

func (b *Block) Children() []incr.Node    { return asNodes(b.Stmts) }
func (b *Block) Elements() []incr.Node    { return asNodes(b.Stmts) }
func (b *Block) ElementEntry() incr.Entry { return EntryStmts }
func (b *Block) Interior() incr.Span {
	return incr.Span{Start: b.Pos.Start + 1, End: b.Pos.End - 1}
}
func (b *Block) Splice(lo, hi int, nodes []incr.Node) {
	b.Stmts = splice(b.Stmts, lo, hi, nodes)
}

// VarStmt declares a local variable.
type VarStmt struct {
	incr.Base
	Type *TypeRef
	Name *Ident
	Init Expr
}

// AssignStmt assigns to a variable or parameter.
type AssignStmt struct {
	incr.Base
	Target *Ident
	Value  Expr
	// Ref is set by the checker.
	Ref *scope.Symbol
}

// IfStmt is a conditional. Else is nil, a *Block or an *IfStmt.
type IfStmt struct {
	incr.Base
	Cond Expr
	Then *Block
	Else Stmt
}

type ReturnStmt struct {
	incr.Base
	Value Expr
}

type ExprStmt struct {
	incr.Base
	X Expr
}

func (*VarStmt) stmtNode()    {}
func (*AssignStmt) stmtNode() {}
func (*IfStmt) stmtNode()     {}
func (*ReturnStmt) stmtNode() {}
func (*ExprStmt) stmtNode()   {}
func (*Block) stmtNode()      {}

func (s *VarStmt) Children() []incr.Node {
	return appendNonNil(nil, s.Type, s.Name, s.Init)
}

func (s *VarStmt) Slots() []incr.Slot {
	return []incr.Slot{
		{Node: slotOf(s.Type), Entry: EntryType, Set: func(n incr.Node) { s.Type = n.(*TypeRef) }},
		{Node: slotOf(s.Name), Name: true, Entry: EntryIdent, Set: func(n incr.Node) { s.Name = n.(*Ident) }},
		{Node: slotOf(s.Init), Entry: EntryExpr, Set: func(n incr.Node) { s.Init = n.(Expr) }},
	}
}

func (s *AssignStmt) Children() []incr.Node {
	return appendNonNil(nil, s.Target, s.Value)
}

func (s *AssignStmt) Slots() []incr.Slot {
	return []incr.Slot{
		{Node: slotOf(s.Target), Entry: EntryIdent, Set: func(n incr.Node) { s.Target = n.(*Ident) }},
		{Node: slotOf(s.Value), Entry: EntryExpr, Set: func(n incr.Node) { s.Value = n.(Expr) }},
	}
}

func (s *IfStmt) Children() []incr.Node {
	return appendNonNil(nil, s.Cond, s.Then, s.Else)
}

func (s *IfStmt) Slots() []incr.Slot {
	return []incr.Slot{
		{Node: slotOf(s.Cond), Entry: EntryExpr, Set: func(n incr.Node) { s.Cond = n.(Expr) }},
		{Node: slotOf(s.Then)},
		{Node: slotOf(s.Else)},
	}
}

func (s *ReturnStmt) Children() []incr.Node {
	return appendNonNil(nil, s.Value)
}

func (s *ReturnStmt) Slots() []incr.Slot {
	return []incr.Slot{
		{Node: slotOf(s.Value), Entry: EntryExpr, Set: func(n incr.Node) { s.Value = n.(Expr) }},
	}
}

func (s *ExprStmt) Children() []incr.Node { return []incr.Node{s.X} }

func (s *ExprStmt) Slots() []incr.Slot {
	return []incr.Slot{
		{Node: s.X, Entry: EntryExpr, Set: func(n incr.Node) { s.X = n.(Expr) }},
	}
}

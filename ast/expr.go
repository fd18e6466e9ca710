// Copyright © 2024 The ELPS authors

package ast

import (
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/parser/token"
	"github.com/luthersystems/tdl/scope"
)

// Expr is an expression.
type Expr interface {
	incr.Node
	exprNode()
}

type IntLit struct {
	incr.Base
	Value int64
}

type FloatLit struct {
	incr.Base
	Value float64
}

type StringLit struct {
	incr.Base
	Value string
}

type BoolLit struct {
	incr.Base
	Value bool
}

// Name references a constant, parameter or variable.
type Name struct {
	incr.Base
	Name string
	// Ref is set by the checker.
	Ref *scope.Symbol
}

// Call invokes a function, altstep, testcase or builtin.
type Call struct {
	incr.Base
	Func *Ident
	Args []Expr
	// Ref is set by the checker.
	Ref *scope.Symbol
}

type Unary struct {
	incr.Base
	Op token.Type
	X  Expr
}

type Binary struct {
	incr.Base
	Op token.Type
	X  Expr
	Y  Expr
}

type Paren struct {
	incr.Base
	X Expr
}

func (*IntLit) exprNode()    {}
func (*FloatLit) exprNode()  {}
func (*StringLit) exprNode() {}
func (*BoolLit) exprNode()   {}
func (*Name) exprNode()      {}
func (*Call) exprNode()      {}
func (*Unary) exprNode()     {}
func (*Binary) exprNode()    {}
func (*Paren) exprNode()     {}

func (*IntLit) Children() []incr.Node    { return nil }
func (*FloatLit) Children() []incr.Node  { return nil }
func (*StringLit) Children() []incr.Node { return nil }
func (*BoolLit) Children() []incr.Node   { return nil }
func (*Name) Children() []incr.Node      { return nil }

func (c *Call) Children() []incr.Node {
	return append([]incr.Node{c.Func}, asNodes(c.Args)...)
}

func (u *Unary) Children() []incr.Node  { return []incr.Node{u.X} }
func (b *Binary) Children() []incr.Node { return []incr.Node{b.X, b.Y} }
func (p *Paren) Children() []incr.Node  { return []incr.Node{p.X} }

// Unparen strips any number of enclosing parentheses.
func Unparen(x Expr) Expr {
	for {
		p, ok := x.(*Paren)
		if !ok {
			return x
		}
		x = p.X
	}
}

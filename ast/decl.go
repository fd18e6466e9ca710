// Copyright © 2024 The ELPS authors

package ast

import (
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/scope"
)

// Module is the root of a source buffer. Its span always covers the whole
// buffer.
type Module struct {
	incr.Base
	Name *Ident
	Defs *DefList
	// Scope is bound by the checker.
	Scope scope.ID
}

func (m *Module) Children() []incr.Node {
	return appendNonNil(nil, m.Name, m.Defs)
}

func (m *Module) Slots() []incr.Slot {
	return []incr.Slot{
		{Node: slotOf(m.Name), Name: true, Entry: EntryIdent, Set: func(n incr.Node) { m.Name = n.(*Ident) }},
		{Node: slotOf(m.Defs)},
	}
}

// ModuleName returns the declared name of m.
func (m *Module) ModuleName() string {
	if m == nil || m.Name == nil {
		return ""
	}
	return m.Name.Name
}

// DefList is the braced body of a module.
type DefList struct {
	incr.Base
	Defs []Def
}

func (l *DefList) Children() []incr.Node    { return asNodes(l.Defs) }
func (l *DefList) Elements() []incr.Node    { return asNodes(l.Defs) }
func (l *DefList) ElementEntry() incr.Entry { return EntryDefs }
func (l *DefList) Interior() incr.Span {
	return incr.Span{Start: l.Pos.Start + 1, End: l.Pos.End - 1}
}
func (l *DefList) Splice(lo, hi int, nodes []incr.Node) {
	l.Defs = splice(l.Defs, lo, hi, nodes)
}

// Def is a module level definition.
type Def interface {
	incr.Node
	// DefName returns the identifying name, nil when it is missing.
	DefName() *Ident
}

// Import makes the definitions of another module visible.
type Import struct {
	incr.Base
	Module *Ident
	All    bool
}

func (d *Import) DefName() *Ident        { return d.Module }
func (d *Import) Children() []incr.Node { return []incr.Node{d.Module} }
func (d *Import) Slots() []incr.Slot {
	return []incr.Slot{
		{Node: slotOf(d.Module), Name: true, Entry: EntryIdent, Set: func(n incr.Node) { d.Module = n.(*Ident) }},
	}
}

// Const is a module level constant.
type Const struct {
	incr.Base
	Type  *TypeRef
	Name  *Ident
	Value Expr
}

func (d *Const) DefName() *Ident { return d.Name }
func (d *Const) Children() []incr.Node {
	return appendNonNil(nil, d.Type, d.Name, d.Value)
}
func (d *Const) Slots() []incr.Slot {
	return []incr.Slot{
		{Node: slotOf(d.Type), Entry: EntryType, Set: func(n incr.Node) { d.Type = n.(*TypeRef) }},
		{Node: slotOf(d.Name), Name: true, Entry: EntryIdent, Set: func(n incr.Node) { d.Name = n.(*Ident) }},
		{Node: d.Value, Entry: EntryExpr, Set: func(n incr.Node) { d.Value = n.(Expr) }},
	}
}

// FuncKind distinguishes the parameterized definitions.
type FuncKind int

const (
	KindFunction FuncKind = iota
	KindAltstep
	KindTestcase
)

func (k FuncKind) String() string {
	switch k {
	case KindAltstep:
		return "altstep"
	case KindTestcase:
		return "testcase"
	default:
		return "function"
	}
}

// SymbolKind returns the kind of symbol a definition of kind k declares.
func (k FuncKind) SymbolKind() scope.SymbolKind {
	switch k {
	case KindAltstep:
		return scope.SymAltstep
	case KindTestcase:
		return scope.SymTestcase
	default:
		return scope.SymFunction
	}
}

// Function is a function, altstep or testcase definition.
type Function struct {
	incr.Base
	Kind   FuncKind
	Name   *Ident
	Params *ParamList
	Return *TypeRef
	Body   *Block
}

func (d *Function) DefName() *Ident { return d.Name }
func (d *Function) Children() []incr.Node {
	return appendNonNil(nil, d.Name, d.Params, d.Return, d.Body)
}
func (d *Function) Slots() []incr.Slot {
	return []incr.Slot{
		{Node: slotOf(d.Name), Name: true, Entry: EntryIdent, Set: func(n incr.Node) { d.Name = n.(*Ident) }},
		{Node: slotOf(d.Params)},
		{Node: slotOf(d.Return), Entry: EntryType, Set: func(n incr.Node) { d.Return = n.(*TypeRef) }},
		{Node: slotOf(d.Body)},
	}
}

// ParamList is the parenthesized parameter list of a Function.
type ParamList struct {
	incr.Base
	Params []*Param
}

func (l *ParamList) Children() []incr.Node    { return asNodes(l.Params) }
func (l *ParamList) Elements() []incr.Node    { return asNodes(l.Params) }
func (l *ParamList) ElementEntry() incr.Entry { return EntryParams }
func (l *ParamList) Interior() incr.Span {
	return incr.Span{Start: l.Pos.Start + 1, End: l.Pos.End - 1}
}
func (l *ParamList) Splice(lo, hi int, nodes []incr.Node) {
	l.Params = splice(l.Params, lo, hi, nodes)
}

// Direction is the passing mode of a parameter.
type Direction int

const (
	DirIn Direction = iota
	DirOut
	DirInout
)

func (d Direction) String() string {
	switch d {
	case DirOut:
		return "out"
	case DirInout:
		return "inout"
	default:
		return "in"
	}
}

// Param is a formal parameter.
type Param struct {
	incr.Base
	Dir  Direction
	Lazy bool
	Type *TypeRef
	Name *Ident
}

func (p *Param) Children() []incr.Node { return appendNonNil(nil, p.Type, p.Name) }
func (p *Param) Slots() []incr.Slot {
	return []incr.Slot{
		{Node: slotOf(p.Type), Entry: EntryType, Set: func(n incr.Node) { p.Type = n.(*TypeRef) }},
		{Node: slotOf(p.Name), Name: true, Entry: EntryIdent, Set: func(n incr.Node) { p.Name = n.(*Ident) }},
	}
}

// Mode converts d to the scope representation.
func (d Direction) Mode() scope.Mode {
	switch d {
	case DirOut:
		return scope.ModeOut
	case DirInout:
		return scope.ModeInout
	default:
		return scope.ModeIn
	}
}

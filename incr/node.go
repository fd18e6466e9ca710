// Copyright © 2024 The ELPS authors

package incr

// Node is a syntax tree node that takes part in incremental analysis.
type Node interface {
	// Span returns the node's position in the current buffer text.
	Span() Span
	// SetSpan moves the node. Only the Reparser calls it.
	SetSpan(Span)
	// Children returns the owned child nodes in source order.
	Children() []Node
	// Cache returns the node's memoized check state.
	Cache() *Cache
}

// Base implements the bookkeeping half of Node and is meant to be
// embedded.
type Base struct {
	Pos   Span
	cache Cache
}

// Span implements Node.
func (b *Base) Span() Span { return b.Pos }

// SetSpan implements Node.
func (b *Base) SetSpan(s Span) { b.Pos = s }

// Cache implements Node.
func (b *Base) Cache() *Cache { return &b.cache }

// Entry names a grammar production that can be parsed in isolation.
type Entry string

// Grammar parses a fragment of buffer text starting at a known production.
// Parse must be a pure function of its arguments. The text is the fragment
// alone; base is the buffer offset of its first byte and is added to every
// span the returned nodes carry.
//
// A fragment must be consumed entirely: trailing input that is not
// whitespace or comments is an error.
type Grammar interface {
	Parse(entry Entry, text string, base int) ([]Node, error)
}

// Slot is one child position of a Composite.
type Slot struct {
	// Node is the current child, nil when an optional child is absent.
	Node Node
	// Name marks the slot holding the identifying token of the owner.
	Name bool
	// Entry re-reads a leaf child in isolation. Children that are
	// themselves Composite or Sequence are updated in place instead.
	Entry Entry
	// Set replaces the child after it has been re-read.
	Set func(Node)
}

// Composite is a node with a fixed sequence of named children.
type Composite interface {
	Node
	Slots() []Slot
}

// Sequence is a node holding a homogeneous run of elements between
// delimiters, such as a parameter list, a block of statements or the
// definitions of a module.
type Sequence interface {
	Node
	// Elements returns the current elements in source order.
	Elements() []Node
	// Interior is the part of the span elements may occupy, excluding
	// delimiters.
	Interior() Span
	// ElementEntry parses a run of zero or more elements.
	ElementEntry() Entry
	// Splice replaces elements [lo, hi) with nodes.
	Splice(lo, hi int, nodes []Node)
}

// Isolator is implemented by grammars whose tokens can run past the end of
// a fragment or join the text before it, such as line comments and
// identifiers. Isolated reports whether text[target] lexes the same on its
// own as it does inside text. The Reparser only hands a grammar fragments
// that are isolated.
type Isolator interface {
	Isolated(text string, target Span) bool
}

// BridgeRemover tears down the scope bridge owned by a node, if any.
type BridgeRemover interface {
	Remove(owner Node)
}

// Walk calls fn for n and every node below it in pre-order. Walk stops
// descending below a node for which fn returns false.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// Copyright © 2024 The ELPS authors

package scope

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/luthersystems/tdl/incr"
)

// ID identifies a scope in an Arena. The zero ID means "no scope".
type ID uint32

// None is the invalid scope ID.
const None ID = 0

// Valid reports whether id refers to a scope.
func (id ID) Valid() bool {
	return id != None
}

// Kind classifies a scope.
type Kind int

const (
	KindModule Kind = iota // module level definitions
	KindBridge             // link between a definition and its parent
	KindParams             // formal parameters
	KindBlock              // statement block
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindBridge:
		return "bridge"
	case KindParams:
		return "params"
	case KindBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Scope is a lexical scope.
type Scope struct {
	Kind   Kind
	Parent ID
	// Owner is the node that introduced the scope. Its span locates the
	// scope in the buffer and follows relocation.
	Owner incr.Node
	// Subs is the subscope index in creation order.
	Subs    []ID
	Symbols map[string]*Symbol
	// Dead is set once the scope has been unlinked.
	Dead bool
}

// Arena stores scopes in a slice indexed by ID.
type Arena struct {
	data []Scope
}

// NewArena creates an arena with an optional capacity hint.
func NewArena(capacity uint32) *Arena {
	if capacity == 0 {
		capacity = 32
	}
	return &Arena{
		data: make([]Scope, 1, capacity+1), // index 0 reserved for None
	}
}

// New allocates a scope registered as a subscope of parent.
func (a *Arena) New(kind Kind, parent ID, owner incr.Node) ID {
	value, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("scope arena overflow: %w", err))
	}
	id := ID(value)
	a.data = append(a.data, Scope{
		Kind:    kind,
		Parent:  parent,
		Owner:   owner,
		Symbols: make(map[string]*Symbol),
	})
	if p := a.Get(parent); p != nil {
		p.Subs = append(p.Subs, id)
	}
	return id
}

// Get returns the scope with the given ID or nil if id is invalid. The
// pointer is valid until the next call to New.
func (a *Arena) Get(id ID) *Scope {
	if !id.Valid() || int(id) >= len(a.data) {
		return nil
	}
	return &a.data[id]
}

// Len reports the number of scopes ever allocated.
func (a *Arena) Len() int { return len(a.data) - 1 }

// Live reports the number of scopes that have not been unlinked.
func (a *Arena) Live() int {
	n := 0
	for i := 1; i < len(a.data); i++ {
		if !a.data[i].Dead {
			n++
		}
	}
	return n
}

// Reparent moves id under parent, updating both subscope indexes.
func (a *Arena) Reparent(id, parent ID) {
	s := a.Get(id)
	if s == nil || s.Parent == parent {
		return
	}
	a.detach(id)
	s = a.Get(id)
	s.Parent = parent
	if p := a.Get(parent); p != nil {
		p.Subs = append(p.Subs, id)
	}
}

// Unlink removes id from its parent's subscope index and kills it along
// with every scope below it.
func (a *Arena) Unlink(id ID) {
	if a.Get(id) == nil {
		return
	}
	a.detach(id)
	a.kill(id)
}

// Reset drops the symbols and subscopes of id, keeping id itself.
func (a *Arena) Reset(id ID) {
	s := a.Get(id)
	if s == nil {
		return
	}
	subs := s.Subs
	s.Subs = nil
	s.Symbols = make(map[string]*Symbol)
	for _, sub := range subs {
		a.kill(sub)
	}
}

// ClearSymbols drops the symbols of id but keeps its subscopes.
func (a *Arena) ClearSymbols(id ID) {
	if s := a.Get(id); s != nil {
		s.Symbols = make(map[string]*Symbol)
	}
}

func (a *Arena) detach(id ID) {
	s := a.Get(id)
	p := a.Get(s.Parent)
	if p == nil {
		return
	}
	for i, sub := range p.Subs {
		if sub == id {
			p.Subs = append(p.Subs[:i:i], p.Subs[i+1:]...)
			break
		}
	}
}

func (a *Arena) kill(id ID) {
	s := a.Get(id)
	s.Dead = true
	s.Symbols = nil
	subs := s.Subs
	s.Subs = nil
	for _, sub := range subs {
		a.kill(sub)
	}
}

// Define adds sym to scope id. If the name is already defined there the
// existing symbol is kept and returned.
func (a *Arena) Define(id ID, sym *Symbol) *Symbol {
	s := a.Get(id)
	if s == nil || s.Dead {
		return nil
	}
	if prev, ok := s.Symbols[sym.Name]; ok {
		return prev
	}
	sym.Scope = id
	s.Symbols[sym.Name] = sym
	return nil
}

// Lookup resolves a name by walking the parent chain.
// Returns nil if the name is not found or id is dead.
func (a *Arena) Lookup(id ID, name string) *Symbol {
	if a.dead(id) {
		return nil
	}
	for s := a.Get(id); s != nil; s = a.Get(s.Parent) {
		if sym, ok := s.Symbols[name]; ok {
			return sym
		}
	}
	return nil
}

func (a *Arena) dead(id ID) bool {
	s := a.Get(id)
	return s != nil && s.Dead
}

// LookupLocal resolves a name only in scope id.
func (a *Arena) LookupLocal(id ID, name string) *Symbol {
	if s := a.Get(id); s != nil {
		return s.Symbols[name]
	}
	return nil
}

// At returns the innermost live scope below root whose owner contains the
// byte at offset.
func (a *Arena) At(root ID, offset int) ID {
	cur := root
	for {
		s := a.Get(cur)
		if s == nil {
			return root
		}
		next := None
		for _, sub := range s.Subs {
			ss := a.Get(sub)
			if ss == nil || ss.Dead || ss.Owner == nil {
				continue
			}
			sp := ss.Owner.Span()
			if sp.Start <= offset && offset <= sp.End {
				next = sub
				break
			}
		}
		if !next.Valid() {
			return cur
		}
		cur = next
	}
}

// Visible returns every symbol visible from id, innermost first. Shadowed
// names are reported once. A dead scope sees nothing.
func (a *Arena) Visible(id ID) []*Symbol {
	if a.dead(id) {
		return nil
	}
	seen := make(map[string]bool)
	var out []*Symbol
	for s := a.Get(id); s != nil; s = a.Get(s.Parent) {
		for name, sym := range s.Symbols {
			if !seen[name] {
				seen[name] = true
				out = append(out, sym)
			}
		}
	}
	return out
}

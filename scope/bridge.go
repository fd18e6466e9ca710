// Copyright © 2024 The ELPS authors

package scope

import "github.com/luthersystems/tdl/incr"

// Bridge links a parameterized definition to the scope that encloses it.
// Parameters live in a scope below the bridge and the body below the
// parameters, so re-attaching a definition only moves the bridge.
type Bridge struct {
	Scope  ID
	Parent ID
	Params ID
	Body   ID
	// DisplayName is the name the owner was last attached under.
	DisplayName string
}

// Bridges manages the bridge of every parameterized definition of one
// module. Bridges are keyed by node identity.
type Bridges struct {
	arena   *Arena
	byOwner map[incr.Node]*Bridge
	created int
}

// NewBridges returns a manager allocating scopes in a.
func NewBridges(a *Arena) *Bridges {
	return &Bridges{arena: a, byOwner: make(map[incr.Node]*Bridge)}
}

// Arena returns the arena bridges are allocated in.
func (b *Bridges) Arena() *Arena { return b.arena }

// Get returns the bridge of owner, if any.
func (b *Bridges) Get(owner incr.Node) (*Bridge, bool) {
	br, ok := b.byOwner[owner]
	return br, ok
}

// Attach links owner to parent. When owner is already bridged to parent
// only the display name is updated. Otherwise a new bridge scope is registered under
// parent, located by owner, and any parameter and body scopes owner
// already has are moved below it. The boolean result reports whether a
// bridge was allocated.
func (b *Bridges) Attach(owner incr.Node, name string, parent ID) (*Bridge, bool) {
	old, ok := b.byOwner[owner]
	if ok && old.Parent == parent {
		old.DisplayName = name
		return old, false
	}
	br := &Bridge{
		Scope:       b.arena.New(KindBridge, parent, owner),
		Parent:      parent,
		DisplayName: name,
	}
	if ok {
		br.Params, br.Body = old.Params, old.Body
		b.arena.Reparent(br.Params, br.Scope)
		b.arena.Reparent(br.Body, br.Params)
		b.arena.detach(old.Scope)
		b.arena.Get(old.Scope).Dead = true
		b.arena.Get(old.Scope).Subs = nil
	} else {
		br.Params = b.arena.New(KindParams, br.Scope, owner)
		br.Body = b.arena.New(KindBlock, br.Params, owner)
	}
	b.byOwner[owner] = br
	b.created++
	return br, true
}

// Remove tears down the bridge of owner, unlinking its bridge scope and
// every scope below it. It does nothing when owner has no bridge.
func (b *Bridges) Remove(owner incr.Node) {
	br, ok := b.byOwner[owner]
	if !ok {
		return
	}
	b.arena.Unlink(br.Scope)
	delete(b.byOwner, owner)
}

// ResetLocals drops every parameter, local and nested block of owner so
// they can be bound again.
func (b *Bridges) ResetLocals(owner incr.Node) {
	br, ok := b.byOwner[owner]
	if !ok {
		return
	}
	b.arena.ClearSymbols(br.Params)
	b.arena.Reset(br.Body)
}

// Len reports the number of live bridges.
func (b *Bridges) Len() int { return len(b.byOwner) }

// Created reports how many bridges were allocated so far.
func (b *Bridges) Created() int { return b.created }

// Prune removes the bridges of owners for which keep returns false.
func (b *Bridges) Prune(keep func(incr.Node) bool) int {
	n := 0
	for owner := range b.byOwner {
		if !keep(owner) {
			b.Remove(owner)
			n++
		}
	}
	return n
}

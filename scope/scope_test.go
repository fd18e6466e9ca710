// Copyright © 2024 The ELPS authors

package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/tdl/incr"
)

type node struct {
	incr.Base
}

func (n *node) Children() []incr.Node { return nil }

func at(start, end int) *node {
	return &node{Base: incr.Base{Pos: incr.Span{Start: start, End: end}}}
}

// --- Arena ---

func TestArenaLookupWalksParents(t *testing.T) {
	a := NewArena(0)
	mod := a.New(KindModule, None, at(0, 100))
	blk := a.New(KindBlock, mod, at(10, 20))
	require.Nil(t, a.Define(mod, &Symbol{Name: "x", Kind: SymConst}))
	require.Nil(t, a.Define(blk, &Symbol{Name: "y", Kind: SymVariable}))

	assert.Equal(t, SymConst, a.Lookup(blk, "x").Kind)
	assert.Equal(t, blk, a.Lookup(blk, "y").Scope)
	assert.Nil(t, a.Lookup(mod, "y"))
	assert.Nil(t, a.LookupLocal(blk, "x"))
	assert.Len(t, a.Visible(blk), 2)
}

func TestArenaDefineKeepsFirst(t *testing.T) {
	a := NewArena(0)
	mod := a.New(KindModule, None, nil)
	first := &Symbol{Name: "f", Kind: SymFunction}
	require.Nil(t, a.Define(mod, first))
	prev := a.Define(mod, &Symbol{Name: "f", Kind: SymConst})
	assert.Same(t, first, prev)
	assert.Same(t, first, a.Lookup(mod, "f"))
}

func TestArenaUnlinkKillsSubtree(t *testing.T) {
	a := NewArena(0)
	mod := a.New(KindModule, None, nil)
	outer := a.New(KindBlock, mod, nil)
	inner := a.New(KindBlock, outer, nil)
	a.Unlink(outer)
	assert.Empty(t, a.Get(mod).Subs)
	assert.True(t, a.Get(outer).Dead)
	assert.True(t, a.Get(inner).Dead)
	assert.Equal(t, 1, a.Live())
	assert.Nil(t, a.Define(inner, &Symbol{Name: "z"}))
}

func TestArenaDeadScopeSeesNothing(t *testing.T) {
	a := NewArena(0)
	mod := a.New(KindModule, None, nil)
	require.Nil(t, a.Define(mod, &Symbol{Name: "g", Kind: SymFunction}))
	blk := a.New(KindBlock, mod, nil)
	require.Nil(t, a.Define(blk, &Symbol{Name: "v", Kind: SymVariable}))
	require.NotNil(t, a.Lookup(blk, "g"))

	a.Unlink(blk)
	assert.Nil(t, a.Lookup(blk, "g"), "module symbols are not reachable from a dead scope")
	assert.Nil(t, a.Lookup(blk, "v"))
	assert.Empty(t, a.Visible(blk))
	assert.NotNil(t, a.Lookup(mod, "g"))
}

func TestArenaAtFollowsRelocation(t *testing.T) {
	a := NewArena(0)
	mod := a.New(KindModule, None, at(0, 100))
	owner := at(10, 20)
	blk := a.New(KindBlock, mod, owner)
	assert.Equal(t, blk, a.At(mod, 15))
	assert.Equal(t, mod, a.At(mod, 25))
	owner.SetSpan(incr.Span{Start: 20, End: 30})
	assert.Equal(t, blk, a.At(mod, 25))
}

// --- Bridges ---

func TestAttachIsIdempotent(t *testing.T) {
	a := NewArena(0)
	mod := a.New(KindModule, None, at(0, 100))
	b := NewBridges(a)
	fn := at(10, 40)

	br, created := b.Attach(fn, "f", mod)
	require.True(t, created)
	assert.Equal(t, mod, a.Get(br.Scope).Parent)
	assert.Equal(t, br.Scope, a.Get(br.Params).Parent)
	assert.Equal(t, br.Params, a.Get(br.Body).Parent)
	scopes := a.Len()

	again, created := b.Attach(fn, "g", mod)
	assert.False(t, created)
	assert.Same(t, br, again)
	assert.Equal(t, "g", again.DisplayName, "renamed in place")
	assert.Equal(t, scopes, a.Len(), "no scope allocated")
	assert.Equal(t, []ID{br.Scope}, a.Get(mod).Subs, "parent index unchanged")
}

func TestAttachToNewParentMovesLocals(t *testing.T) {
	a := NewArena(0)
	m1 := a.New(KindModule, None, nil)
	m2 := a.New(KindModule, None, nil)
	b := NewBridges(a)
	fn := at(10, 40)
	br, _ := b.Attach(fn, "f", m1)
	require.Nil(t, a.Define(br.Params, &Symbol{Name: "p", Kind: SymParameter}))

	moved, created := b.Attach(fn, "f", m2)
	require.True(t, created)
	assert.Equal(t, br.Params, moved.Params)
	assert.Equal(t, moved.Scope, a.Get(moved.Params).Parent)
	assert.Empty(t, a.Get(m1).Subs)
	assert.True(t, a.Get(br.Scope).Dead)
	assert.NotNil(t, a.Lookup(moved.Body, "p"))
}

func TestRemoveBridge(t *testing.T) {
	a := NewArena(0)
	mod := a.New(KindModule, None, nil)
	require.Nil(t, a.Define(mod, &Symbol{Name: "g", Kind: SymFunction}))
	b := NewBridges(a)
	f, g := at(0, 10), at(10, 20)
	bf, _ := b.Attach(f, "f", mod)
	bg, _ := b.Attach(g, "g", mod)

	b.Remove(f)
	_, ok := b.Get(f)
	assert.False(t, ok)
	assert.True(t, a.Get(bf.Body).Dead)
	assert.Equal(t, []ID{bg.Scope}, a.Get(mod).Subs, "sibling bridge untouched")
	assert.NotNil(t, a.Lookup(bg.Body, "g"), "parent scope untouched")

	b.Remove(f)
	assert.Equal(t, 1, b.Len())
}

func TestResetLocalsKeepsBridge(t *testing.T) {
	a := NewArena(0)
	mod := a.New(KindModule, None, nil)
	b := NewBridges(a)
	fn := at(0, 10)
	br, _ := b.Attach(fn, "f", mod)
	a.Define(br.Params, &Symbol{Name: "p"})
	nested := a.New(KindBlock, br.Body, nil)

	b.ResetLocals(fn)
	assert.Nil(t, a.Lookup(br.Body, "p"))
	assert.True(t, a.Get(nested).Dead)
	assert.False(t, a.Get(br.Body).Dead)
	_, created := b.Attach(fn, "f", mod)
	assert.False(t, created)
}

func TestPrune(t *testing.T) {
	a := NewArena(0)
	mod := a.New(KindModule, None, nil)
	b := NewBridges(a)
	keep, drop := at(0, 1), at(1, 2)
	b.Attach(keep, "keep", mod)
	b.Attach(drop, "drop", mod)
	n := b.Prune(func(n incr.Node) bool { return n == keep })
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, 2, b.Created())
}

// Copyright © 2024 The ELPS authors

package incr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStale(t *testing.T) {
	c := NewClock()
	n := &leaf{}
	t1 := c.Next()
	assert.True(t, IsStale(n, t1), "never checked")
	MarkChecked(n, t1)
	assert.False(t, IsStale(n, t1))
	t2 := c.Next()
	assert.True(t, IsStale(n, t2), "older pass")
	assert.True(t, IsStale(n, NewClock().Next()), "other clock")
	n.Cache().Invalidate()
	assert.True(t, IsStale(n, t1))
}

func TestCheckIsIdempotent(t *testing.T) {
	c := NewClock()
	n := &leaf{}
	calls := 0
	check := func(s Sink) {
		calls++
		Errorf(s, n, "E1", "bad %s", "thing")
	}
	p := NewPass(c.Next(), nil)
	diags, err := Check(p, n, check)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "bad thing", diags[0].Message)

	again, err := Check(p, n, check)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "fresh node is not checked twice")
	assert.Equal(t, diags, again)

	_, err = Check(NewPass(c.Next(), nil), n, check)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCheckDetectsCycles(t *testing.T) {
	p := NewPass(NewClock().Next(), nil)
	n := &leaf{}
	var inner error
	_, err := Check(p, n, func(Sink) {
		_, inner = Check(p, n, func(Sink) {})
	})
	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrCycle)
	assert.False(t, IsStale(n, p.Stamp))
}

func TestCheckPanicLeavesNodeStale(t *testing.T) {
	p := NewPass(NewClock().Next(), nil)
	n := &leaf{}
	assert.Panics(t, func() {
		Check(p, n, func(Sink) { panic("boom") }) //nolint:errcheck
	})
	assert.True(t, IsStale(n, p.Stamp))
	_, err := Check(p, n, func(Sink) {})
	assert.NoError(t, err, "in-flight flag is cleared")
}

func TestCheckSuperseded(t *testing.T) {
	c := NewClock()
	var g Guard
	p := NewPass(c.Next(), &g)
	n := &leaf{}
	_, err := Check(p, n, func(Sink) {
		g.Advance(c.Next())
	})
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.True(t, IsStale(n, p.Stamp), "superseded results are not published")

	_, err = Check(p, n, func(Sink) { t.Fatal("must not run") })
	assert.ErrorIs(t, err, ErrSuperseded)
}

func TestCheckSkipSemantics(t *testing.T) {
	p := NewPass(NewClock().Next(), nil)
	p.SkipSemantics = true
	n := &leaf{}
	diags, err := Check(p, n, func(Sink) { t.Fatal("must not run") })
	assert.NoError(t, err)
	assert.Empty(t, diags)
}

func TestDiagnosticFollowsNode(t *testing.T) {
	n := &leaf{Base: Base{Pos: Span{Start: 4, End: 6}}}
	d := Diagnostic{Node: n, Message: "x"}
	n.SetSpan(Span{Start: 10, End: 12})
	assert.Equal(t, Span{Start: 10, End: 12}, d.Span())
}

// Copyright © 2024 The ELPS authors

package incr

import (
	"fmt"
	"sync/atomic"
)

// ClockID identifies the Clock that issued a Timestamp.
type ClockID uint32

// Timestamp identifies one analysis pass. Timestamps issued by the same
// Clock are totally ordered and never reused. The zero Timestamp means
// "never checked".
type Timestamp struct {
	Clock ClockID
	Seq   uint64
}

// IsZero reports whether t is the zero Timestamp.
func (t Timestamp) IsZero() bool {
	return t.Seq == 0
}

// Before reports whether t was issued before o by the same clock.
// Timestamps of different clocks are unordered and Before returns false.
func (t Timestamp) Before(o Timestamp) bool {
	return t.Clock == o.Clock && t.Seq < o.Seq
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return "never"
	}
	return fmt.Sprintf("%d.%d", t.Clock, t.Seq)
}

var clockIDs atomic.Uint32

// Clock is a compilation timestamp authority. Each call to Next starts a
// new "check the world" pass. Independent clocks may coexist (for example a
// background pass and a foreground quick check); a node stamped by one
// clock is never considered fresh by another.
type Clock struct {
	id  ClockID
	seq atomic.Uint64
}

// NewClock returns a clock with a process-unique identity.
func NewClock() *Clock {
	return &Clock{id: ClockID(clockIDs.Add(1))}
}

// ID returns the identity stamped into every Timestamp issued by c.
func (c *Clock) ID() ClockID {
	return c.id
}

// Next issues a new Timestamp, strictly greater than every Timestamp
// previously issued by c.
func (c *Clock) Next() Timestamp {
	seq := c.seq.Add(1)
	assertf(seq != 0, "timestamp sequence of clock %d wrapped", c.id)
	return Timestamp{Clock: c.id, Seq: seq}
}

// Last returns the most recently issued Timestamp, or the zero Timestamp.
func (c *Clock) Last() Timestamp {
	seq := c.seq.Load()
	if seq == 0 {
		return Timestamp{}
	}
	return Timestamp{Clock: c.id, Seq: seq}
}

// Guard orders the passes requested for one unit of work (typically a
// module). Every Advance or Cancel supersedes the passes started before it,
// including passes that share its timestamp. A superseded pass must stop
// early and must not publish its results.
type Guard struct {
	gen    atomic.Uint64
	latest atomic.Pointer[Timestamp]
}

// Advance records a pass stamped ts and returns its generation.
func (g *Guard) Advance(ts Timestamp) uint64 {
	g.latest.Store(&ts)
	return g.gen.Add(1)
}

// Cancel supersedes every pass started so far, typically because the unit
// of work is being edited.
func (g *Guard) Cancel() {
	g.gen.Add(1)
}

// Current reports whether no pass was requested and nothing was cancelled
// since generation gen was issued.
func (g *Guard) Current(gen uint64) bool {
	return g.gen.Load() == gen
}

// Latest returns the timestamp of the most recent pass, or the zero
// Timestamp.
func (g *Guard) Latest() Timestamp {
	latest := g.latest.Load()
	if latest == nil {
		return Timestamp{}
	}
	return *latest
}

// Copyright © 2024 The ELPS authors

package incr

import (
	"errors"
	"fmt"
)

// ErrCycle is returned by Check when a node's check re-enters itself.
var ErrCycle = errors.New("recursive check")

// ErrSuperseded is returned by Check when a newer pass has been requested
// for the same unit of work.
var ErrSuperseded = errors.New("pass superseded")

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Diagnostic is a finding attached to a node. Its position is read from
// the node when needed so a cached diagnostic stays accurate after the
// node has been relocated.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	Node     Node
	// At overrides the node position when the finding concerns only part
	// of the node. It is not relocated.
	At *Span
}

// Span returns the current position of the diagnostic.
func (d Diagnostic) Span() Span {
	if d.At != nil {
		return *d.At
	}
	if d.Node == nil {
		return Span{}
	}
	return d.Node.Span()
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%v %s: %s %s", d.Span(), d.Severity, d.Code, d.Message)
}

// Sink receives diagnostics. Reporting never aborts a check.
type Sink interface {
	Report(Diagnostic)
}

// Collector is a Sink that keeps diagnostics in report order.
type Collector struct {
	Diags []Diagnostic
}

// Report implements Sink.
func (c *Collector) Report(d Diagnostic) {
	c.Diags = append(c.Diags, d)
}

// Errorf reports an error about n.
func Errorf(s Sink, n Node, code string, format string, v ...interface{}) {
	s.Report(Diagnostic{Severity: SeverityError, Code: code, Message: fmt.Sprintf(format, v...), Node: n})
}

// Warnf reports a warning about n.
func Warnf(s Sink, n Node, code string, format string, v ...interface{}) {
	s.Report(Diagnostic{Severity: SeverityWarning, Code: code, Message: fmt.Sprintf(format, v...), Node: n})
}

// Cache is the memoized check state of a Node.
type Cache struct {
	last     Timestamp
	diags    []Diagnostic
	checking bool
}

// LastChecked returns the timestamp of the last completed check.
func (c *Cache) LastChecked() Timestamp {
	return c.last
}

// Diagnostics returns the diagnostics produced by the last completed check.
func (c *Cache) Diagnostics() []Diagnostic {
	return c.diags
}

// Invalidate forgets the last check so the next pass checks the node again.
func (c *Cache) Invalidate() {
	c.last = Timestamp{}
	c.diags = nil
}

func (c *Cache) stale(ts Timestamp) bool {
	return c.last.IsZero() || c.last.Clock != ts.Clock || c.last.Seq < ts.Seq
}

// IsStale reports whether n must be checked again during the pass stamped
// ts: it has never been checked, it was checked under another clock, or it
// was checked by an older pass.
func IsStale(n Node, ts Timestamp) bool {
	return n.Cache().stale(ts)
}

// MarkChecked records that every check obligation of n has been met by the
// pass stamped ts.
func MarkChecked(n Node, ts Timestamp) {
	c := n.Cache()
	assertf(!ts.Before(c.last), "node %v marked with %v after %v", n.Span(), ts, c.last)
	c.last = ts
}

// Pass carries the state of one analysis pass over a unit of work.
//
// Several passes may share a Stamp: a pass only rechecks the nodes whose
// cache was invalidated since the last pass with that stamp. A new stamp
// makes every node stale.
type Pass struct {
	Stamp Timestamp
	// SkipSemantics short-circuits every Check of the pass. Scope binding
	// still runs so dependents can resolve exported names.
	SkipSemantics bool

	guard *Guard
	gen   uint64
}

// NewPass starts a pass stamped ts. When g is non-nil the pass becomes the
// current one for g and is superseded by any later Advance or Cancel.
func NewPass(ts Timestamp, g *Guard) *Pass {
	p := &Pass{Stamp: ts, guard: g}
	if g != nil {
		p.gen = g.Advance(ts)
	}
	return p
}

// Superseded reports whether a newer pass has been requested.
func (p *Pass) Superseded() bool {
	return p.guard != nil && !p.guard.Current(p.gen)
}

// Check runs fn to check n unless n is fresh for p, in which case it
// returns the diagnostics of the previous check without calling fn. On
// success n is marked checked with p's stamp. A panic in fn leaves n
// stale.
func Check(p *Pass, n Node, fn func(Sink)) ([]Diagnostic, error) {
	if p.Superseded() {
		return nil, ErrSuperseded
	}
	c := n.Cache()
	if !c.stale(p.Stamp) {
		return c.diags, nil
	}
	if c.checking {
		return nil, ErrCycle
	}
	if p.SkipSemantics {
		return nil, nil
	}
	c.checking = true
	defer func() { c.checking = false }()
	var col Collector
	fn(&col)
	if p.Superseded() {
		return nil, ErrSuperseded
	}
	c.diags = col.Diags
	MarkChecked(n, p.Stamp)
	return c.diags, nil
}

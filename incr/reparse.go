// Copyright © 2024 The ELPS authors

package incr

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var (
	errUnclaimed  = errors.New("no child contains the damage")
	errStraddle   = errors.New("damage straddles children")
	errDelimiters = errors.New("damage reaches the delimiters")
	errLeaf       = errors.New("leaf cannot be re-read in place")
	errBoundary   = errors.New("a token crosses the fragment boundary")
)

// Stats counts the work done by a Reparser.
type Stats struct {
	Relocated int
	Reparsed  int
	Rebuilt   int
	Escalated int
}

// ReparserOption configures a Reparser.
type ReparserOption func(*Reparser)

// WithBridges makes the Reparser tear down the scope bridge of every node
// it abandons or discards.
func WithBridges(b BridgeRemover) ReparserOption {
	return func(r *Reparser) {
		r.bridges = b
	}
}

// WithLogger sets the logger used to trace escalations.
func WithLogger(l *logrus.Entry) ReparserOption {
	return func(r *Reparser) {
		r.log = l
	}
}

// Reparser resynchronizes a syntax tree with its buffer after one edit.
// A Reparser performs a single walk and must not be reused.
type Reparser struct {
	text    string
	grammar Grammar
	region  *Region
	bridges BridgeRemover
	log     *logrus.Entry

	moved   map[Node]struct{}
	rebuilt []Node
	stats   Stats
}

// NewReparser returns a Reparser for edit e. Text is the complete buffer
// after the edit has been applied.
func NewReparser(text string, e Edit, g Grammar, opts ...ReparserOption) *Reparser {
	r := &Reparser{
		text:    text,
		grammar: g,
		region:  NewRegion(e),
		moved:   make(map[Node]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logrus.NewEntry(logrus.StandardLogger())
	}
	return r
}

// Region returns the damage as it currently stands.
func (r *Reparser) Region() Region {
	return *r.region
}

// Stats returns the work done so far.
func (r *Reparser) Stats() Stats {
	return r.stats
}

// Reparse updates root, the top-level node of the edited buffer. A nil
// error means the tree matches the new text. Otherwise the error is an
// *Escalation and the caller must rebuild root from scratch; the tree is
// left in an unspecified state apart from the caches of untouched nodes.
//
// The returned outcome is FullyRebuilt when any elements were parsed
// again, PartiallyUpdated when only leaves were re-read, and Unchanged
// when nodes were merely relocated.
func (r *Reparser) Reparse(root Node) (Outcome, error) {
	if !r.region.Within(root.Span()) {
		return r.abandon(root, Abort, fmt.Errorf("damage %v outside %v", r.region, root.Span()))
	}
	_, err := r.update(root)
	if err != nil {
		var esc *Escalation
		if errors.As(err, &esc) && esc.Node == root && esc.Kind == PartialFailure {
			esc.Kind = Abort
		}
		return Outcome{Kind: Failed, Reason: err}, err
	}
	switch {
	case len(r.rebuilt) > 0:
		return Outcome{Kind: FullyRebuilt, Span: root.Span(), Nodes: r.rebuilt}, nil
	case r.stats.Reparsed > 0:
		return Outcome{Kind: PartiallyUpdated, Span: root.Span()}, nil
	}
	return Outcome{Kind: Unchanged, Span: root.Span()}, nil
}

func (r *Reparser) update(n Node) (Outcome, error) {
	switch n := n.(type) {
	case Sequence:
		return r.updateSequence(n)
	case Composite:
		return r.updateComposite(n)
	}
	return r.abandon(n, PartialFailure, errLeaf)
}

func (r *Reparser) updateComposite(n Composite) (Outcome, error) {
	slots := n.Slots()
	claim := -1
	for i, slot := range slots {
		if slot.Node == nil {
			continue
		}
		sp := slot.Node.Span()
		if slot.Name && (r.region.Within(sp) || r.region.IsExtending(sp)) {
			r.region.Extend(sp)
			if !r.region.Within(sp) {
				return r.abandon(n, PartialFailure, errStraddle)
			}
			claim = i
			break
		}
		if r.region.Within(sp) {
			claim = i
			break
		}
		if r.region.Overlaps(sp) {
			return r.abandon(n, PartialFailure, errStraddle)
		}
	}
	if claim < 0 {
		return r.abandon(n, PartialFailure, errUnclaimed)
	}

	n.Cache().Invalidate()
	slot := slots[claim]
	old, cur := slot.Node.Span(), slot.Node
	var err error
	switch slot.Node.(type) {
	case Sequence, Composite:
		_, err = r.update(slot.Node)
	default:
		cur, err = r.reparseSlot(slot)
	}
	if err != nil {
		kind := StructuralFailure
		var esc *Escalation
		if errors.As(err, &esc) {
			kind = esc.Kind
		}
		return r.abandon(n, kind, err)
	}
	for i, s := range slots {
		if i != claim && s.Node != nil {
			r.relocate(s.Node)
		}
	}
	r.resize(n, old, cur.Span())
	return Outcome{Kind: PartiallyUpdated, Span: n.Span()}, nil
}

func (r *Reparser) reparseSlot(slot Slot) (Node, error) {
	if slot.Entry == "" || slot.Set == nil {
		return nil, errLeaf
	}
	target := r.region.Stretch(slot.Node.Span())
	nodes, err := r.parse(slot.Entry, target)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("%s: parsed %d nodes, want 1", slot.Entry, len(nodes))
	}
	r.discard(slot.Node)
	slot.Set(nodes[0])
	r.settle(nodes[0])
	r.stats.Reparsed++
	return nodes[0], nil
}

func (r *Reparser) updateSequence(seq Sequence) (Outcome, error) {
	if !r.region.Within(seq.Interior()) {
		return r.abandon(seq, PartialFailure, errDelimiters)
	}
	seq.Cache().Invalidate()
	els := seq.Elements()
	damage := *r.region

	lo, hi := damagedRange(els, seq.Interior(), damage)

	// An element holding all of the damage may absorb it on its own.
	// Ties at a shared boundary go to the earlier element.
	if i := containing(els, lo, hi, damage); i >= 0 {
		_, err := r.update(els[i])
		if err == nil {
			r.relocateExcept(els, i, i+1)
			r.stretch(seq)
			return Outcome{Kind: PartiallyUpdated, Span: seq.Span()}, nil
		}
		r.stats.Escalated++
		r.log.WithError(err).Debug("element escalated, rebuilding run")
	}

	if lo >= 0 {
		for _, e := range els[lo:hi] {
			r.region.Extend(e.Span())
		}
		// Damage before the first element may start inside a comment;
		// the interior start is a known token boundary.
		if in := seq.Interior(); lo == 0 && r.region.Start < els[0].Span().Start {
			r.region.Extend(Span{Start: in.Start, End: in.Start})
		}
	} else {
		lo, hi = 0, 0
		r.region.Extend(seq.Interior())
	}
	nodes, err := r.parse(seq.ElementEntry(), r.region.Target())
	if err != nil {
		return r.abandon(seq, StructuralFailure, err)
	}
	for _, e := range els[lo:hi] {
		r.discard(e)
	}
	r.relocateExcept(els, lo, hi)
	seq.Splice(lo, hi, nodes)
	for _, n := range nodes {
		r.settle(n)
	}
	r.stretch(seq)
	r.rebuilt = append(r.rebuilt, nodes...)
	r.stats.Rebuilt += len(nodes)
	return Outcome{Kind: FullyRebuilt, Span: seq.Span(), Nodes: nodes}, nil
}

// containing returns the first element of els[lo:hi] that holds all of
// the damage, or -1.
func containing(els []Node, lo, hi int, damage Region) int {
	if lo < 0 {
		return -1
	}
	for i := lo; i < hi; i++ {
		if damage.Within(els[i].Span()) {
			return i
		}
	}
	return -1
}

// damagedRange returns the elements [lo, hi) that must be parsed again to
// absorb the damage: every element it overlaps and both neighbours of every
// gap it reaches, since gaps may hold separators. It returns -1, -1 for an
// empty sequence.
func damagedRange(els []Node, interior Span, damage Region) (int, int) {
	lo, hi := -1, -1
	include := func(i int) {
		if i < 0 || i >= len(els) {
			return
		}
		if lo < 0 || i < lo {
			lo = i
		}
		if i+1 > hi {
			hi = i + 1
		}
	}
	for i, e := range els {
		if damage.Overlaps(e.Span()) {
			include(i)
		}
	}
	for i := 0; i <= len(els); i++ {
		g := gapSpan(els, interior, i)
		if damage.Start <= g.End && damage.End >= g.Start {
			include(i - 1)
			include(i)
		}
	}
	return lo, hi
}

// gapSpan returns the text between the neighbours of insertion index i.
func gapSpan(els []Node, interior Span, i int) Span {
	gap := interior
	if i > 0 {
		gap.Start = els[i-1].Span().End
	}
	if i < len(els) {
		gap.End = els[i].Span().Start
	}
	return gap
}

func (r *Reparser) parse(entry Entry, target Span) ([]Node, error) {
	if target.Start < 0 || target.End > len(r.text) || target.Start > target.End {
		assertf(false, "reparse target %v outside buffer of %d bytes", target, len(r.text))
		return nil, fmt.Errorf("reparse target %v outside buffer", target)
	}
	if iso, ok := r.grammar.(Isolator); ok && !iso.Isolated(r.text, target) {
		return nil, fmt.Errorf("%s %v: %w", entry, target, errBoundary)
	}
	return r.grammar.Parse(entry, r.text[target.Start:target.End], target.Start)
}

func (r *Reparser) abandon(n Node, kind FailureKind, err error) (Outcome, error) {
	n.Cache().Invalidate()
	if r.bridges != nil {
		r.bridges.Remove(n)
	}
	r.log.WithFields(logrus.Fields{
		"span":    n.Span().String(),
		"failure": kind.String(),
		"damage":  r.region.String(),
	}).Debug("reparse escalated")
	return Outcome{Kind: Failed, Reason: err}, &Escalation{Kind: kind, Node: n, Err: err}
}

func (r *Reparser) relocateExcept(els []Node, lo, hi int) {
	for i, e := range els {
		if i < lo || i >= hi {
			r.relocate(e)
		}
	}
}

// relocate moves an undamaged subtree to its post-edit position.
func (r *Reparser) relocate(n Node) {
	sp := n.Span()
	if sp.End <= r.region.Start || r.region.Delta == 0 {
		return
	}
	Walk(n, func(m Node) bool {
		r.move(m, r.region.Relocate(m.Span()))
		return true
	})
}

func (r *Reparser) stretch(n Node) {
	r.move(n, r.region.Stretch(n.Span()))
}

// resize moves composite n after the child that spanned old was brought up
// to date and now spans cur. Where that child began or ended n, it still
// does: text inserted at the edge of n may be whitespace owned by no node.
func (r *Reparser) resize(n Node, old, cur Span) {
	sp := n.Span()
	to := r.region.Stretch(sp)
	if old.Start == sp.Start {
		to.Start = cur.Start
	}
	if old.End == sp.End {
		to.End = cur.End
	}
	r.move(n, to)
}

func (r *Reparser) move(n Node, to Span) {
	_, dup := r.moved[n]
	assertf(!dup, "node at %v relocated twice", n.Span())
	r.moved[n] = struct{}{}
	n.SetSpan(to)
	r.stats.Relocated++
}

// settle records freshly parsed nodes so that a later attempt to relocate
// them is caught.
func (r *Reparser) settle(n Node) {
	Walk(n, func(m Node) bool {
		r.moved[m] = struct{}{}
		return true
	})
}

// discard drops every scope bridge owned inside a replaced subtree.
func (r *Reparser) discard(n Node) {
	if r.bridges == nil {
		return
	}
	Walk(n, func(m Node) bool {
		r.bridges.Remove(m)
		return true
	})
}

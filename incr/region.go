// Copyright © 2024 The ELPS authors

package incr

import "fmt"

// Edit describes one text change: Removed bytes starting at Offset were
// replaced by Inserted bytes. Offsets are in pre-edit coordinates.
type Edit struct {
	Offset   int
	Removed  int
	Inserted int
}

// Delta returns the change in buffer length caused by e.
func (e Edit) Delta() int {
	return e.Inserted - e.Removed
}

func (e Edit) String() string {
	return fmt.Sprintf("edit@%d -%d +%d", e.Offset, e.Removed, e.Inserted)
}

// Region is the damaged part of a buffer during one reparse walk.
// Start and End are pre-edit offsets; Delta is the change in length of the
// text they delimit. A Region only ever grows.
type Region struct {
	Start int
	End   int
	Delta int
}

// NewRegion returns the damage caused by e.
func NewRegion(e Edit) *Region {
	return &Region{Start: e.Offset, End: e.Offset + e.Removed, Delta: e.Delta()}
}

// Span returns the damaged interval in pre-edit coordinates.
func (r *Region) Span() Span {
	return Span{Start: r.Start, End: r.End}
}

// Target returns the damaged interval in post-edit coordinates.
func (r *Region) Target() Span {
	return Span{Start: r.Start, End: r.End + r.Delta}
}

// Envelops reports whether s lies entirely inside the damage.
func (r *Region) Envelops(s Span) bool {
	return r.Start <= s.Start && s.End <= r.End
}

// Within reports whether the damage lies entirely inside s.
func (r *Region) Within(s Span) bool {
	return s.Start <= r.Start && r.End <= s.End
}

// IsExtending reports whether the damage begins exactly where s ends or
// ends exactly where s begins. Such an edit may join tokens with s.
func (r *Region) IsExtending(s Span) bool {
	return r.Start == s.End || r.End == s.Start
}

// Overlaps reports whether the damage and s share at least one byte, or
// whether an empty damage sits strictly inside s.
func (r *Region) Overlaps(s Span) bool {
	return r.Start < s.End && s.Start < r.End
}

// Touches reports whether s overlaps or borders the damage.
func (r *Region) Touches(s Span) bool {
	return r.Overlaps(s) || r.IsExtending(s)
}

// Extend grows the damage to cover s.
func (r *Region) Extend(s Span) {
	prev := *r
	r.Start = min(r.Start, s.Start)
	r.End = max(r.End, s.End)
	assertf(r.Start <= prev.Start && r.End >= prev.End,
		"damage region shrank from [%d,%d) to [%d,%d)", prev.Start, prev.End, r.Start, r.End)
}

// Relocate returns the post-edit position of a span that does not overlap
// the damage. Spans ending at or before the damage keep their position;
// spans starting at or after its end slide by Delta. A span that contains
// the damage keeps its start and stretches by Delta.
func (r *Region) Relocate(s Span) Span {
	switch {
	case s.Start >= r.End:
		return s.Shift(r.Delta)
	case s.End <= r.Start:
		return s
	case r.Within(s):
		return Span{Start: s.Start, End: s.End + r.Delta}
	}
	assertf(false, "relocating span %v that straddles damage %v", s, r.Span())
	return s
}

// Stretch returns the post-edit position of a span that contains the
// damage.
func (r *Region) Stretch(s Span) Span {
	assertf(r.Within(s), "stretching span %v that does not contain damage %v", s, r.Span())
	return Span{Start: s.Start, End: s.End + r.Delta}
}

func (r *Region) String() string {
	return fmt.Sprintf("damage[%d,%d)%+d", r.Start, r.End, r.Delta)
}

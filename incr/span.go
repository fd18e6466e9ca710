// Copyright © 2024 The ELPS authors

package incr

import "fmt"

// Span is a half-open byte interval [Start, End) of a source buffer.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by s.
func (s Span) Len() int {
	return s.End - s.Start
}

// Empty reports whether s covers no bytes.
func (s Span) Empty() bool {
	return s.Start == s.End
}

// Contains reports whether o lies entirely inside s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// ContainsOffset reports whether the byte at off lies inside s.
func (s Span) ContainsOffset(off int) bool {
	return s.Start <= off && off < s.End
}

// Union returns the smallest span covering both s and o.
func (s Span) Union(o Span) Span {
	return Span{Start: min(s.Start, o.Start), End: max(s.End, o.End)}
}

// Shift moves s by delta bytes.
func (s Span) Shift(delta int) Span {
	return Span{Start: s.Start + delta, End: s.End + delta}
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

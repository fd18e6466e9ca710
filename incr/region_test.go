// Copyright © 2024 The ELPS authors

package incr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegionPredicates(t *testing.T) {
	r := NewRegion(Edit{Offset: 10, Removed: 5, Inserted: 2})
	assert.Equal(t, Span{Start: 10, End: 15}, r.Span())
	assert.Equal(t, -3, r.Delta)
	assert.Equal(t, Span{Start: 10, End: 12}, r.Target())

	assert.True(t, r.Within(Span{Start: 0, End: 20}))
	assert.True(t, r.Within(Span{Start: 10, End: 15}))
	assert.False(t, r.Within(Span{Start: 11, End: 20}))

	assert.True(t, r.Envelops(Span{Start: 11, End: 14}))
	assert.False(t, r.Envelops(Span{Start: 9, End: 14}))

	assert.True(t, r.IsExtending(Span{Start: 5, End: 10}))
	assert.True(t, r.IsExtending(Span{Start: 15, End: 18}))
	assert.False(t, r.IsExtending(Span{Start: 16, End: 18}))

	assert.True(t, r.Overlaps(Span{Start: 14, End: 20}))
	assert.False(t, r.Overlaps(Span{Start: 15, End: 20}))
	assert.False(t, r.Overlaps(Span{Start: 0, End: 10}))
}

func TestEmptyRegionInsideSpan(t *testing.T) {
	r := NewRegion(Edit{Offset: 12, Inserted: 5})
	b := Span{Start: 10, End: 25}
	assert.True(t, r.Within(b))
	assert.True(t, r.Overlaps(b))
	assert.False(t, r.Overlaps(Span{Start: 12, End: 20}), "insertion at a start is not inside")
	assert.True(t, r.IsExtending(Span{Start: 12, End: 20}))
}

func TestRegionExtendIsMonotonic(t *testing.T) {
	r := NewRegion(Edit{Offset: 12, Removed: 2, Inserted: 1})
	seen := []Span{r.Span()}
	for _, s := range []Span{{10, 13}, {11, 12}, {20, 25}, {0, 1}, {5, 30}} {
		r.Extend(s)
		prev := seen[len(seen)-1]
		assert.LessOrEqual(t, r.Start, prev.Start)
		assert.GreaterOrEqual(t, r.End, prev.End)
		seen = append(seen, r.Span())
	}
	assert.Equal(t, Span{Start: 0, End: 30}, r.Span())
	assert.Equal(t, -1, r.Delta, "extension does not change the length delta")
}

func TestRegionRelocate(t *testing.T) {
	r := NewRegion(Edit{Offset: 12, Inserted: 5})
	assert.Equal(t, Span{Start: 0, End: 10}, r.Relocate(Span{Start: 0, End: 10}), "before")
	assert.Equal(t, Span{Start: 5, End: 12}, r.Relocate(Span{Start: 5, End: 12}), "ends at damage")
	assert.Equal(t, Span{Start: 30, End: 45}, r.Relocate(Span{Start: 25, End: 40}), "after")
	assert.Equal(t, Span{Start: 17, End: 20}, r.Relocate(Span{Start: 12, End: 15}), "starts at insertion")
	assert.Equal(t, Span{Start: 10, End: 30}, r.Stretch(Span{Start: 10, End: 25}), "container")
}

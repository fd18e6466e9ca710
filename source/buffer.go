// Copyright © 2024 The ELPS authors

// Package source holds the text of a module and converts between byte
// offsets and line/column positions.
package source

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/luthersystems/tdl/incr"
)

// ErrOutOfRange is returned for offsets and positions outside the buffer.
var ErrOutOfRange = errors.New("position out of range")

// Position is a zero based line and column. Col counts bytes unless
// produced by a UTF-16 conversion.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Col+1)
}

// Buffer is the text of one module. Edits are applied in place and bump
// the version.
type Buffer struct {
	// ID identifies the buffer for its whole life, across edits.
	ID      uuid.UUID
	Name    string
	Version int32

	text  string
	lines []int // start offset of each line, nil until needed
}

// New returns a buffer holding text.
func New(name, text string) *Buffer {
	return &Buffer{ID: uuid.New(), Name: name, text: text}
}

// Text returns the whole content.
func (b *Buffer) Text() string { return b.text }

// Len returns the length of the content in bytes.
func (b *Buffer) Len() int { return len(b.text) }

// Slice returns the text covered by s, clamped to the buffer.
func (b *Buffer) Slice(s incr.Span) string {
	start, end := clamp(s.Start, len(b.text)), clamp(s.End, len(b.text))
	if end < start {
		return ""
	}
	return b.text[start:end]
}

func clamp(n, max int) int {
	switch {
	case n < 0:
		return 0
	case n > max:
		return max
	}
	return n
}

// Apply replaces the text e removes with inserted. The length of inserted
// must equal e.Inserted.
func (b *Buffer) Apply(e incr.Edit, inserted string) error {
	if len(inserted) != e.Inserted {
		return fmt.Errorf("edit %v: inserted text has %d bytes", e, len(inserted))
	}
	if e.Offset < 0 || e.Removed < 0 || e.Offset+e.Removed > len(b.text) {
		return fmt.Errorf("edit %v: %w (buffer has %d bytes)", e, ErrOutOfRange, len(b.text))
	}
	b.text = b.text[:e.Offset] + inserted + b.text[e.Offset+e.Removed:]
	b.lines = nil
	b.Version++
	return nil
}

// Replace sets the content to text and returns the smallest single edit
// that turns the old content into the new one.
func (b *Buffer) Replace(text string) incr.Edit {
	e := Diff(b.text, text)
	b.text = text
	b.lines = nil
	b.Version++
	return e
}

// Diff returns the smallest single edit turning old into new: the common
// prefix and suffix are left out.
func Diff(old, new string) incr.Edit {
	pre := 0
	for pre < len(old) && pre < len(new) && old[pre] == new[pre] {
		pre++
	}
	suf := 0
	for suf < len(old)-pre && suf < len(new)-pre && old[len(old)-1-suf] == new[len(new)-1-suf] {
		suf++
	}
	return incr.Edit{Offset: pre, Removed: len(old) - pre - suf, Inserted: len(new) - pre - suf}
}

func (b *Buffer) lineIndex() []int {
	if b.lines != nil {
		return b.lines
	}
	b.lines = append(b.lines, 0)
	for i := 0; i < len(b.text); i++ {
		if b.text[i] == '\n' {
			b.lines = append(b.lines, i+1)
		}
	}
	return b.lines
}

// LineCount returns the number of lines. An empty buffer has one line.
func (b *Buffer) LineCount() int {
	return len(b.lineIndex())
}

// Line returns the text of line n without its terminating newline.
func (b *Buffer) Line(n int) string {
	lines := b.lineIndex()
	if n < 0 || n >= len(lines) {
		return ""
	}
	end := len(b.text)
	if n+1 < len(lines) {
		end = lines[n+1] - 1
	}
	return b.text[lines[n]:end]
}

// Position converts a byte offset to a line and byte column.
func (b *Buffer) Position(offset int) Position {
	offset = clamp(offset, len(b.text))
	lines := b.lineIndex()
	line := sort.Search(len(lines), func(i int) bool { return lines[i] > offset }) - 1
	return Position{Line: line, Col: offset - lines[line]}
}

// Offset converts a line and byte column to a byte offset.
func (b *Buffer) Offset(p Position) (int, error) {
	lines := b.lineIndex()
	if p.Line < 0 || p.Line >= len(lines) || p.Col < 0 {
		return 0, fmt.Errorf("%v: %w", p, ErrOutOfRange)
	}
	off := lines[p.Line] + p.Col
	if off > len(b.text) || p.Col > len(b.Line(p.Line)) {
		return 0, fmt.Errorf("%v: %w", p, ErrOutOfRange)
	}
	return off, nil
}

// PositionUTF16 converts a byte offset to a line and a column counted in
// UTF-16 code units, as language clients expect.
func (b *Buffer) PositionUTF16(offset int) Position {
	p := b.Position(offset)
	line := b.Line(p.Line)
	if p.Col > len(line) {
		p.Col = len(line)
	}
	p.Col = utf16Len(line[:p.Col])
	return p
}

// OffsetUTF16 converts a line and UTF-16 column to a byte offset. A column
// past the end of the line maps to the end of the line.
func (b *Buffer) OffsetUTF16(p Position) (int, error) {
	lines := b.lineIndex()
	if p.Line < 0 || p.Line >= len(lines) || p.Col < 0 {
		return 0, fmt.Errorf("%v: %w", p, ErrOutOfRange)
	}
	line := b.Line(p.Line)
	units := 0
	for i, r := range line {
		if units >= p.Col {
			return lines[p.Line] + i, nil
		}
		units += runeUnits(r)
	}
	return lines[p.Line] + len(line), nil
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}

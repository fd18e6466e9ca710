// Copyright © 2018 The ELPS authors

package token

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scanner facilitates construction of tokens from a fragment of a source
// buffer.  Positions reported by the scanner are buffer offsets: the offset
// of the fragment's first byte is given when the scanner is created.
type Scanner struct {
	file string
	src  string
	base int

	trackLines bool
	line       int // line number of the byte at linePos
	linePos    int // index of the first byte of the current line
	startLine  int // line number at start
	startCol   int

	start int // start of the current token
	pos   int // index of c
	next  int // index of the rune following c
	c     Rune
}

// NewScanner initializes and returns a new Scanner over src, a fragment
// starting at buffer offset base.  Line numbers are tracked only when the
// fragment is the whole buffer (base 0).
func NewScanner(file string, src string, base int) *Scanner {
	return &Scanner{
		file:       file,
		src:        src,
		base:       base,
		trackLines: base == 0,
		line:       1,
		startLine:  1,
		startCol:   1,
	}
}

// Base returns the buffer offset of the fragment.
func (s *Scanner) Base() int {
	return s.base
}

// EmitToken returns a token containing the text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type:   typ,
		Text:   s.Text(),
		Source: s.LocStart(),
	}
	s.Ignore()
	return tok
}

// Ignore causes the scanner to skip all text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) Ignore() {
	s.start = s.next
	s.startLine = s.line
	s.startCol = s.next - s.linePos + 1
	if s.c.C == '\n' && s.next > 0 {
		s.startLine++
		s.startCol = 1
	}
}

// Text returns a string containing text scanned since the last call to either
// EmitToken or Ignore.
func (s *Scanner) Text() string {
	return s.src[s.start:s.next]
}

// Rune returns the current unicode rune that is being scanned.  The rune
// returned by Rune is the last rune in a token returned by EmitToken.
func (s *Scanner) Rune() rune {
	return s.c.C
}

// Peek returns the next rune to be scanned, if there are any.  At the end of
// the fragment or before an invalid utf-8 sequence Peek returns a false
// second value.
func (s *Scanner) Peek() (rune, bool) {
	if s.next >= len(s.src) {
		return 0, false
	}
	c, n := utf8.DecodeRuneInString(s.src[s.next:])
	if (Rune{c, n}).IsRuneError() {
		return utf8.RuneError, false
	}
	return c, true
}

// PeekAt returns the rune k runes past the next one.
func (s *Scanner) PeekAt(k int) (rune, bool) {
	i := s.next
	for ; k > 0 && i < len(s.src); k-- {
		_, n := utf8.DecodeRuneInString(s.src[i:])
		i += n
	}
	if i >= len(s.src) {
		return 0, false
	}
	c, _ := utf8.DecodeRuneInString(s.src[i:])
	return c, true
}

// ScanRune attempts to scan a utf-8 rune from the input for inclusion in the
// current token.
func (s *Scanner) ScanRune() error {
	if s.next >= len(s.src) {
		return fmt.Errorf("unexpected end of input")
	}
	c, n := utf8.DecodeRuneInString(s.src[s.next:])
	s.scan(Rune{c, n})
	return s.checkRuneError()
}

func (s *Scanner) scan(r Rune) {
	old := s.c
	s.c = r
	s.pos = s.next
	s.next += r.N
	if old.C == '\n' && s.pos > 0 {
		s.line++
		s.linePos = s.pos
	}
}

// EOF reports whether the whole fragment has been scanned.
func (s *Scanner) EOF() bool {
	return s.next >= len(s.src)
}

func (s *Scanner) Accept(fn func(rune) bool) bool {
	peek, ok := s.Peek()
	if !ok {
		return false
	}
	if fn(peek) {
		return s.ScanRune() == nil
	}
	return false
}

func (s *Scanner) AcceptRune(c rune) bool {
	return s.Accept(func(r rune) bool { return r == c })
}

func (s *Scanner) AcceptDigit() bool {
	return s.Accept(func(r rune) bool { return '0' <= r && r <= '9' })
}

func (s *Scanner) AcceptSpace() bool {
	return s.Accept(unicode.IsSpace)
}

func (s *Scanner) AcceptAny(charset string) bool {
	return s.Accept(func(r rune) bool { return strings.ContainsRune(charset, r) })
}

func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	var n int
	for s.Accept(fn) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqDigit() int {
	var n int
	for s.AcceptDigit() {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqSpace() int {
	var n int
	for s.AcceptSpace() {
		n++
	}
	return n
}

func (s *Scanner) AcceptString(literal string) (int, bool) {
	var n int
	for _, c := range literal {
		if !s.AcceptRune(c) {
			return n, false
		}
		n++
	}
	return n, true
}

func (s *Scanner) checkRuneError() error {
	if s.c.IsRuneError() {
		return fmt.Errorf("invalid utf-8 sequence in source text starting with byte %q", s.src[s.pos])
	}
	return nil
}

// LocStart returns a Location referencing the beginning of the current token,
// just beyond the end of the previous token.
func (s *Scanner) LocStart() *Location {
	loc := &Location{
		File: s.file,
		Pos:  s.base + s.start,
	}
	if s.trackLines {
		loc.Line = s.startLine
		loc.Col = s.startCol
	}
	return loc
}

// Loc returns a Location referencing the current scanner position, the last
// position of the current token.
func (s *Scanner) Loc() *Location {
	loc := &Location{
		File: s.file,
		Pos:  s.base + s.pos,
	}
	if s.trackLines {
		loc.Line = s.line
		loc.Col = s.pos - s.linePos + 1
	}
	return loc
}

// Rune contains a rune read by Scanner.
type Rune struct {
	C rune
	N int
}

// IsRuneError returns true if Rune represents an invalid utf-8 sequence read
// by utf8.DecodeRune.
func (r Rune) IsRuneError() bool {
	return r.C == utf8.RuneError && r.N == 1
}

// Copyright © 2018 The ELPS authors

package lexer

import (
	"fmt"
	"unicode"

	"github.com/luthersystems/tdl/parser/token"
)

type Lexer struct {
	scanner *token.Scanner
}

func New(s *token.Scanner) *Lexer {
	return &Lexer{scanner: s}
}

// ReadToken returns the next token.  At the end of input ReadToken returns a
// token with type token.EOF, every time it is called.  Lexical errors are
// reported as tokens with type token.ERROR.
func (lex *Lexer) ReadToken() *token.Token {
	lex.skipWhitespace()
	if !lex.scanner.Accept(func(c rune) bool { return true }) {
		if lex.scanner.EOF() {
			return lex.emit(token.EOF, "")
		}
		lex.scanner.Ignore()
		return lex.errorf("invalid utf-8 sequence")
	}
	switch c := lex.scanner.Rune(); c {
	case '(':
		return lex.emitText(token.PAREN_L)
	case ')':
		return lex.emitText(token.PAREN_R)
	case '{':
		return lex.emitText(token.BRACE_L)
	case '}':
		return lex.emitText(token.BRACE_R)
	case ',':
		return lex.emitText(token.COMMA)
	case ';':
		return lex.emitText(token.SEMI)
	case '+':
		return lex.emitText(token.PLUS)
	case '-':
		return lex.emitText(token.MINUS)
	case '*':
		return lex.emitText(token.STAR)
	case ':':
		if lex.scanner.AcceptRune('=') {
			return lex.emitText(token.ASSIGN)
		}
		return lex.errorf("expected := but found %q", lex.scanner.Text())
	case '=':
		if lex.scanner.AcceptRune('=') {
			return lex.emitText(token.EQ)
		}
		return lex.errorf("unexpected %q (assignment is :=)", c)
	case '!':
		if lex.scanner.AcceptRune('=') {
			return lex.emitText(token.NEQ)
		}
		return lex.errorf("unexpected %q", c)
	case '<':
		if lex.scanner.AcceptRune('=') {
			return lex.emitText(token.LE)
		}
		return lex.emitText(token.LT)
	case '>':
		if lex.scanner.AcceptRune('=') {
			return lex.emitText(token.GE)
		}
		return lex.emitText(token.GT)
	case '@':
		if _, ok := lex.scanner.AcceptString("lazy"); ok && !isWord(lex.peekRune()) {
			return lex.emitText(token.LAZY)
		}
		return lex.errorf("unknown modifier %q", lex.scanner.Text())
	case '/':
		switch {
		case lex.scanner.AcceptRune('/'):
			lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' })
			return lex.emitText(token.COMMENT)
		case lex.scanner.AcceptRune('*'):
			return lex.readBlockComment()
		}
		return lex.emitText(token.SLASH)
	case '"':
		return lex.readString()
	default:
		if isDigit(c) {
			return lex.readNumber()
		}
		if isWordStart(c) {
			lex.scanner.AcceptSeq(isWord)
			return lex.emitText(token.Lookup(lex.scanner.Text()))
		}
		return lex.errorf("unexpected text starting with %q", c)
	}
}

func (lex *Lexer) emit(typ token.Type, text string) *token.Token {
	tok := &token.Token{
		Type:   typ,
		Text:   text,
		Source: lex.scanner.LocStart(),
	}
	lex.scanner.Ignore()
	return tok
}

func (lex *Lexer) emitText(typ token.Type) *token.Token {
	return lex.scanner.EmitToken(typ)
}

// errorf emits an error token covering the text scanned so far.  The
// message replaces the token text so the position is kept in Source.
func (lex *Lexer) errorf(format string, v ...interface{}) *token.Token {
	tok := lex.scanner.EmitToken(token.ERROR)
	tok.Text = fmt.Sprintf(format, v...)
	return tok
}

func (lex *Lexer) readBlockComment() *token.Token {
	for {
		if _, ok := lex.scanner.AcceptString("*/"); ok {
			return lex.emitText(token.COMMENT)
		}
		if !lex.scanner.Accept(func(c rune) bool { return true }) {
			return lex.errorf("unterminated block comment")
		}
	}
}

func (lex *Lexer) readString() *token.Token {
	for {
		lex.scanner.AcceptSeq(func(c rune) bool { return c != '"' && c != '\\' && c != '\n' })
		switch {
		case lex.scanner.AcceptRune('"'):
			return lex.emitText(token.STRING)
		case lex.scanner.AcceptRune('\\'):
			// Wait until parsing to check the escaped character
			if !lex.scanner.Accept(func(c rune) bool { return c != '\n' }) {
				return lex.errorf("unterminated string literal")
			}
		default:
			return lex.errorf("unterminated string literal")
		}
	}
}

func (lex *Lexer) readNumber() *token.Token {
	lex.scanner.AcceptSeqDigit() // the first digit already scanned
	switch {
	case lex.scanner.AcceptRune('.'):
		if lex.scanner.AcceptSeqDigit() == 0 {
			return lex.errorf("invalid floating point literal starting: %v", lex.scanner.Text())
		}
		if lex.scanner.AcceptAny("eE") {
			return lex.readFloatExponent()
		}
		return lex.emitText(token.FLOAT)
	case lex.scanner.AcceptAny("eE"):
		return lex.readFloatExponent()
	}
	if isWord(lex.peekRune()) {
		lex.scanner.AcceptSeq(isWord)
		return lex.errorf("invalid number literal %q", lex.scanner.Text())
	}
	// the returned string may not actually be a usable number (overflow), but
	// we can find that out at parse time -- not scan time.
	return lex.emitText(token.INT)
}

func (lex *Lexer) readFloatExponent() *token.Token {
	lex.scanner.AcceptAny("+-") // optional sign
	if lex.scanner.AcceptSeqDigit() == 0 {
		return lex.errorf("invalid floating point literal starting: %v", lex.scanner.Text())
	}
	return lex.emitText(token.FLOAT)
}

func (lex *Lexer) skipWhitespace() {
	if lex.scanner.AcceptSeqSpace() > 0 {
		lex.scanner.Ignore()
	}
}

func (lex *Lexer) peekRune() rune {
	r, _ := lex.scanner.Peek()
	return r
}

func isWordStart(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isWord(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

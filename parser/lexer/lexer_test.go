// Copyright © 2018 The ELPS authors

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/tdl/parser/token"
)

func lexAll(src string, base int) []*token.Token {
	lex := New(token.NewScanner("test", src, base))
	var toks []*token.Token
	for {
		tok := lex.ReadToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func types(toks []*token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, tok := range toks {
		out[i] = tok.Type
	}
	return out
}

func TestLexer(t *testing.T) {
	tests := []struct {
		input string
		types []token.Type
	}{
		{``, []token.Type{token.EOF}},
		{`abc`, []token.Type{token.IDENT, token.EOF}},
		{`module M { }`, []token.Type{token.MODULE, token.IDENT, token.BRACE_L, token.BRACE_R, token.EOF}},
		{`x := 10 mod 3;`, []token.Type{token.IDENT, token.ASSIGN, token.INT, token.MOD, token.INT, token.SEMI, token.EOF}},
		{`a==b != c<=d>=e<f>g`, []token.Type{
			token.IDENT, token.EQ, token.IDENT, token.NEQ, token.IDENT, token.LE, token.IDENT,
			token.GE, token.IDENT, token.LT, token.IDENT, token.GT, token.IDENT, token.EOF,
		}},
		{`1.5 2e3 7`, []token.Type{token.FLOAT, token.FLOAT, token.INT, token.EOF}},
		{`in @lazy integer p`, []token.Type{token.IN, token.LAZY, token.TYPENAME, token.IDENT, token.EOF}},
		{`// line
		x /* block
		*/ y`, []token.Type{token.COMMENT, token.IDENT, token.COMMENT, token.IDENT, token.EOF}},
		{`"a\"b" ""`, []token.Type{token.STRING, token.STRING, token.EOF}},
		{`"open`, []token.Type{token.ERROR, token.EOF}},
		{`/* open`, []token.Type{token.ERROR, token.EOF}},
		{`a = b`, []token.Type{token.IDENT, token.ERROR, token.IDENT, token.EOF}},
		{`12ab`, []token.Type{token.ERROR, token.EOF}},
		{`@eager`, []token.Type{token.ERROR, token.IDENT, token.EOF}},
	}
	for _, test := range tests {
		assert.Equal(t, test.types, types(lexAll(test.input, 0)), "input %q", test.input)
	}
}

func TestLexerPositions(t *testing.T) {
	toks := lexAll("module M {\n  const x;\n}", 0)
	require.Len(t, toks, 8)
	c := toks[3]
	assert.Equal(t, token.CONST, c.Type)
	assert.Equal(t, 13, c.Source.Pos)
	assert.Equal(t, 2, c.Source.Line)
	assert.Equal(t, 3, c.Source.Col)
	assert.Equal(t, 18, c.End())
	assert.Equal(t, 3, toks[6].Source.Line)
}

func TestLexerFragmentOffsets(t *testing.T) {
	toks := lexAll("  foo(1)", 40)
	assert.Equal(t, 42, toks[0].Source.Pos)
	assert.Equal(t, 0, toks[0].Source.Line, "lines are not tracked in fragments")
	assert.Equal(t, 46, toks[2].Source.Pos)
}

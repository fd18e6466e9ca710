// Copyright © 2018 The ELPS authors

package rdparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/parser/token"
)

const sampleModule = `module Sample {
  import from Lib all;
  const integer limit := 2 * (3 + 4);
  // helper
  function add(in integer a, inout @lazy float b) return integer {
    var integer sum := a + 1;
    if (sum > limit and not false) { sum := 0; } else if (true) { log("x"); } else { }
    return sum;
  }
  testcase tc() { add(1, 2.5); }
}
`

func TestParseModule(t *testing.T) {
	m, errs := ParseModule("sample.tdl", sampleModule)
	require.Empty(t, errs)
	assert.Equal(t, "Sample", m.ModuleName())
	assert.Equal(t, incr.Span{Start: 0, End: len(sampleModule)}, m.Span())
	require.Len(t, m.Defs.Defs, 4)

	imp := m.Defs.Defs[0].(*ast.Import)
	assert.Equal(t, "Lib", imp.Module.Name)
	assert.True(t, imp.All)

	c := m.Defs.Defs[1].(*ast.Const)
	assert.Equal(t, "limit", c.Name.Name)
	mul := c.Value.(*ast.Binary)
	assert.Equal(t, token.STAR, mul.Op)
	assert.IsType(t, &ast.Paren{}, mul.Y)

	fn := m.Defs.Defs[2].(*ast.Function)
	assert.Equal(t, ast.KindFunction, fn.Kind)
	require.Len(t, fn.Params.Params, 2)
	assert.Equal(t, ast.DirIn, fn.Params.Params[0].Dir)
	assert.Equal(t, ast.DirInout, fn.Params.Params[1].Dir)
	assert.True(t, fn.Params.Params[1].Lazy)
	assert.Equal(t, ast.TypeInteger, ast.TypeName(fn.Return))
	require.Len(t, fn.Body.Stmts, 3)
	ifs := fn.Body.Stmts[1].(*ast.IfStmt)
	elif := ifs.Else.(*ast.IfStmt)
	assert.IsType(t, &ast.Block{}, elif.Else)

	tc := m.Defs.Defs[3].(*ast.Function)
	assert.Equal(t, ast.KindTestcase, tc.Kind)
	call := tc.Body.Stmts[0].(*ast.ExprStmt).X.(*ast.Call)
	assert.Equal(t, "add", call.Func.Name)
	assert.Len(t, call.Args, 2)
}

func TestParseSpans(t *testing.T) {
	m, errs := ParseModule("x", sampleModule)
	require.Empty(t, errs)
	text := func(n incr.Node) string {
		s := n.Span()
		return sampleModule[s.Start:s.End]
	}
	fn := m.Defs.Defs[2].(*ast.Function)
	assert.Equal(t, "(in integer a, inout @lazy float b)", text(fn.Params))
	assert.Equal(t, "inout @lazy float b", text(fn.Params.Params[1]))
	assert.Equal(t, "var integer sum := a + 1;", text(fn.Body.Stmts[0]))
	assert.Equal(t, "const integer limit := 2 * (3 + 4);", text(m.Defs.Defs[1]))
	assert.Equal(t, "2 * (3 + 4)", text(m.Defs.Defs[1].(*ast.Const).Value))
	assert.Equal(t, byte('{'), sampleModule[m.Defs.Span().Start])
	assert.Equal(t, byte('}'), sampleModule[m.Defs.Span().End-1])
}

func TestPrecedence(t *testing.T) {
	nodes, err := NewGrammar("x").Parse(ast.EntryExpr, "a or b and c == 1 + 2 * -d", 0)
	require.NoError(t, err)
	or := nodes[0].(*ast.Binary)
	assert.Equal(t, token.OR, or.Op)
	and := or.Y.(*ast.Binary)
	assert.Equal(t, token.AND, and.Op)
	eq := and.Y.(*ast.Binary)
	assert.Equal(t, token.EQ, eq.Op)
	plus := eq.Y.(*ast.Binary)
	assert.Equal(t, token.PLUS, plus.Op)
	mul := plus.Y.(*ast.Binary)
	assert.IsType(t, &ast.Unary{}, mul.Y)
}

func TestGrammarEntries(t *testing.T) {
	g := NewGrammar("frag")
	tests := []struct {
		entry incr.Entry
		text  string
		count int
		fail  bool
	}{
		{ast.EntryIdent, "  name ", 1, false},
		{ast.EntryIdent, "a b", 0, true},
		{ast.EntryIdent, "integer", 0, true},
		{ast.EntryType, "charstring", 1, false},
		{ast.EntryExpr, "f(1, x) /* c */", 1, false},
		{ast.EntryExpr, "1 +", 0, true},
		{ast.EntryParams, "", 0, false},
		{ast.EntryParams, "integer a, out float b", 2, false},
		{ast.EntryParams, "integer a integer b", 0, true},
		{ast.EntryParams, "integer a,", 0, true},
		{ast.EntryStmts, "x := 1; log(x);", 2, false},
		{ast.EntryStmts, "x := 1", 0, true},
		{ast.EntryDefs, "const integer a := 1; function f() {}", 2, false},
		{ast.EntryDefs, "function f() {", 0, true},
		{ast.EntryDefs, "", 0, false},
	}
	for _, test := range tests {
		nodes, err := g.Parse(test.entry, test.text, 100)
		if test.fail {
			assert.Error(t, err, "%s %q", test.entry, test.text)
			continue
		}
		if assert.NoError(t, err, "%s %q", test.entry, test.text) {
			assert.Len(t, nodes, test.count, "%s %q", test.entry, test.text)
		}
	}
}

func TestGrammarOffsets(t *testing.T) {
	nodes, err := NewGrammar("frag").Parse(ast.EntryDefs, " const integer a := 1;", 40)
	require.NoError(t, err)
	assert.Equal(t, incr.Span{Start: 41, End: 62}, nodes[0].Span())
}

func TestGrammarIsolated(t *testing.T) {
	g := NewGrammar("frag")
	tests := []struct {
		text     string
		start    int
		end      int
		isolated bool
	}{
		{"return 1 //;\n}", 7, 11, false},
		{"return 1 //c\n}", 7, 12, true},
		{"return 1 //c", 7, 12, true},
		{"a := bc;", 5, 6, false},
		{"a := b c;", 5, 6, true},
		{"a := 1.5;", 5, 6, false},
		{"a<=b", 2, 4, false},
		{"ab", 1, 2, false},
		{"a; b", 2, 2, true},
		{"a;b", 2, 2, true},
	}
	for _, test := range tests {
		target := incr.Span{Start: test.start, End: test.end}
		assert.Equal(t, test.isolated, g.Isolated(test.text, target), "%q %v", test.text, target)
	}
}

func TestParseErrorLocation(t *testing.T) {
	_, errs := ParseModule("bad.tdl", "module M {\n  const integer := 1;\n}")
	require.Len(t, errs, 1)
	var lerr *token.LocationError
	require.ErrorAs(t, errs[0], &lerr)
	assert.Equal(t, 2, lerr.Source.Line)
	assert.Contains(t, errs[0].Error(), "expected identifier")
}

func TestParseModuleRecovers(t *testing.T) {
	src := "module M {\n function f( { }\n const integer ok := 1;\n function g() {}\n}"
	m, errs := ParseModule("bad.tdl", src)
	require.NotEmpty(t, errs)
	require.NotNil(t, m)
	var names []string
	for _, d := range m.Defs.Defs {
		names = append(names, d.DefName().Name)
	}
	assert.Equal(t, []string{"ok", "g"}, names)
	assert.Equal(t, "M", m.ModuleName())
}

func TestParseModuleWithoutHeader(t *testing.T) {
	m, errs := ParseModule("bad.tdl", "const integer a := 1;")
	require.Len(t, errs, 1)
	assert.Empty(t, m.Defs.Defs)
	assert.Equal(t, incr.Span{End: 21}, m.Span())
}

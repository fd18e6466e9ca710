// Copyright © 2024 The ELPS authors

package analysis

import (
	"go/constant"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/parser/rdparser"
	"github.com/luthersystems/tdl/scope"
)

const clean = `module M {
  const integer K := 2 * 3 + 1;
  function add(integer a, integer b) return integer {
    return a + b;
  }
  function main() {
    var integer x := add(K, 1);
    log(x);
  }
}`

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()
	m, errs := rdparser.ParseModule("test.tdl", src)
	require.Empty(t, errs)
	return m
}

func checkSource(t *testing.T, src string, cfg *Config) (*Checker, *Result) {
	t.Helper()
	c := NewChecker(parse(t, src))
	res, err := c.Check(incr.NewPass(incr.NewClock().Next(), nil), cfg)
	require.NoError(t, err)
	return c, res
}

func codes(res *Result) []string {
	var out []string
	for _, d := range res.Diagnostics {
		out = append(out, d.Code)
	}
	return out
}

func constNamed(m *ast.Module, name string) *ast.Const {
	for _, d := range m.Defs.Defs {
		if k, ok := d.(*ast.Const); ok && k.Name.Name == name {
			return k
		}
	}
	return nil
}

// --- Checks ---

func TestCleanModule(t *testing.T) {
	c, res := checkSource(t, clean, nil)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, 3, res.Checked)

	k := constNamed(c.Module(), "K")
	require.NotNil(t, k)
	v := c.ConstValue(k)
	require.NotNil(t, v)
	n, ok := constant.Int64Val(v)
	assert.True(t, ok)
	assert.EqualValues(t, 7, n)

	add := c.Lookup("add")
	require.NotNil(t, add)
	assert.Equal(t, scope.SymFunction, add.Kind)
	assert.Equal(t, "(integer a, integer b) return integer", add.Sig.String())
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"undefined name", `module M { function f() { log(y); } }`, []string{CodeUndefined}},
		{"undefined function", `module M { function f() { g(); } }`, []string{CodeUndefined}},
		{"duplicate definition", `module M { const integer a := 1; const integer a := 2; }`, []string{CodeDuplicate}},
		{"duplicate parameter", `module M { function f(integer a, float a) {} }`, []string{CodeDuplicate}},
		{"duplicate local", `module M { function f() { var integer a := 1; var integer a := 2; log(a); } }`, []string{CodeDuplicate}},
		{"arity", `module M { function g(integer a) {} function f() { g(1, 2); } }`, []string{CodeArity}},
		{"not callable", `module M { const integer k := 1; function f() { k(); } }`, []string{CodeNotCallable}},
		{"function as value", `module M { function g() {} function f() { var integer a := g; log(a); } }`, []string{CodeNotValue}},
		{"void call as value", `module M { function g() {} function f() { var integer a := g(); log(a); } }`, []string{CodeNoValue}},
		{"assign to const", `module M { const integer k := 1; function f() { k := 2; } }`, []string{CodeAssignConst}},
		{"assign to in parameter", `module M { function f(integer a) { a := 2; } }`, []string{CodeAssignIn}},
		{"assign to out parameter", `module M { function f(out integer a) { a := 2; } }`, nil},
		{"lazy out parameter", `module M { function f(out @lazy integer a) { a := 1; } }`, []string{CodeLazyNotIn}},
		{"lazy in parameter", `module M { function f(@lazy integer a) return integer { return a; } }`, nil},
		{"literal to out parameter", `module M { function g(out integer a) { a := 1; } function f() { g(1); } }`, []string{CodeNotAssignable}},
		{"type mismatch", `module M { const integer k := "x"; }`, []string{CodeTypeMismatch}},
		{"mixed operands", `module M { function f(integer a, float b) { log(a + b); } }`, []string{CodeTypeMismatch}},
		{"non boolean condition", `module M { function f(integer a) { if (a) { log(a); } } }`, []string{CodeTypeMismatch}},
		{"return value from void", `module M { function f() { return 1; } }`, []string{CodeReturn}},
		{"missing return value", `module M { function f() return integer { return; } }`, []string{CodeReturn}},
		{"missing return", `module M { function f(boolean b) return integer { if (b) { return 1; } } }`, []string{CodeMissingReturn}},
		{"if else returns", `module M { function f(boolean b) return integer { if (b) { return 1; } else { return 2; } } }`, nil},
		{"unused local", `module M { function f() { var integer a := 1; } }`, []string{CodeUnusedVariable}},
		{"write only local", `module M { function f() { var integer a; a := 1; } }`, []string{CodeUnusedVariable}},
		{"circular constants", `module M { const integer a := b; const integer b := a + 1; }`, []string{CodeCircular}},
		{"self reference", `module M { const integer a := a; }`, []string{CodeCircular}},
		{"call in constant", `module M { function g() return integer { return 1; } const integer a := g(); }`, []string{CodeNonConstant}},
		{"constant division by zero", `module M { const integer a := 1 / (2 - 2); }`, []string{CodeDivByZero}},
		{"unknown module", `module M { import from Nope all; }`, []string{CodeUnknownModule}},
		{"import self", `module M { import from M all; }`, []string{CodeImportSelf}},
		{"block scoping", `module M { function f(boolean b) { if (b) { var integer a := 1; log(a); } log(a); } }`, []string{CodeUndefined}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, res := checkSource(t, tc.src, nil)
			assert.Equal(t, tc.want, codes(res))
		})
	}
}

func TestWarningSeverity(t *testing.T) {
	_, res := checkSource(t, `module M { function f() { var integer a := 1; } }`, nil)
	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, incr.SeverityWarning, d.Severity)
	assert.False(t, res.HasErrors())
	assert.Equal(t, "a", d.Node.(*ast.Ident).Name)
}

func TestConstantFolding(t *testing.T) {
	src := `module M {
  const integer a := 7 / 2;
  const integer b := 7 mod 4;
  const float c := 1.5 * 2.0;
  const boolean d := a < b or not true;
  const charstring e := "x";
  const integer f := -a;
}`
	c, res := checkSource(t, src, nil)
	require.Empty(t, res.Diagnostics)
	m := c.Module()
	assert.Equal(t, "3", c.ConstValue(constNamed(m, "a")).ExactString())
	assert.Equal(t, "3", c.ConstValue(constNamed(m, "b")).ExactString())
	assert.Equal(t, "3", c.ConstValue(constNamed(m, "c")).ExactString())
	assert.Equal(t, "false", c.ConstValue(constNamed(m, "d")).ExactString())
	assert.Equal(t, `"x"`, c.ConstValue(constNamed(m, "e")).ExactString())
	assert.Equal(t, "-3", c.ConstValue(constNamed(m, "f")).ExactString())
}

// --- Imports ---

func TestImportedExports(t *testing.T) {
	lib := parse(t, `module Lib {
  const integer limit := 10;
  function twice(integer a) return integer { return a * 2; }
}`)
	exports := Exports(lib)
	require.Len(t, exports, 2)
	assert.Equal(t, "Lib", exports[0].Module)
	assert.Equal(t, scope.SymConst, exports[0].Kind)
	assert.Equal(t, "integer", exports[1].Type)

	cfg := &Config{Exports: map[string][]ExternalSymbol{"Lib": exports}}
	_, res := checkSource(t, `module App {
  import from Lib all;
  function f() return integer { return twice(limit); }
}`, cfg)
	assert.Empty(t, res.Diagnostics)

	_, res = checkSource(t, `module App {
  import from Lib all;
  function f() return integer { return twice(limit, 1); }
}`, cfg)
	assert.Equal(t, []string{CodeArity}, codes(res))
}

func TestLocalShadowsImport(t *testing.T) {
	cfg := &Config{Exports: map[string][]ExternalSymbol{
		"Lib": {{Name: "limit", Kind: scope.SymConst, Module: "Lib", Type: "charstring"}},
	}}
	c, res := checkSource(t, `module App {
  import from Lib all;
  const integer limit := 3;
  function f() return integer { return limit; }
}`, cfg)
	assert.Empty(t, res.Diagnostics)
	assert.Empty(t, c.Lookup("limit").Module)
}

// --- Incremental behavior ---

func TestSecondPassReusesDiagnostics(t *testing.T) {
	c := NewChecker(parse(t, `module M { function f() { log(y); } function g() {} }`))
	stamp := incr.NewClock().Next()
	first, err := c.Check(incr.NewPass(stamp, nil), nil)
	require.NoError(t, err)
	second, err := c.Check(incr.NewPass(stamp, nil), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Checked)
	assert.Equal(t, 0, second.Checked)
	assert.Equal(t, 2, second.Reused)
	assert.Equal(t, codes(first), codes(second))
	assert.Equal(t, 2, c.Bridges().Created(), "bridges are attached once")
}

func TestNewStampChecksEverything(t *testing.T) {
	c := NewChecker(parse(t, clean))
	clock := incr.NewClock()
	_, err := c.Check(incr.NewPass(clock.Next(), nil), nil)
	require.NoError(t, err)
	res, err := c.Check(incr.NewPass(clock.Next(), nil), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Checked)
	assert.Zero(t, res.Reused)
}

func edit(t *testing.T, c *Checker, src, old, repl string) string {
	t.Helper()
	off := strings.Index(src, old)
	require.GreaterOrEqual(t, off, 0)
	text := src[:off] + repl + src[off+len(old):]
	e := incr.Edit{Offset: off, Removed: len(old), Inserted: len(repl)}
	rp := incr.NewReparser(text, e, rdparser.NewGrammar("test.tdl"), incr.WithBridges(c.Bridges()))
	_, err := rp.Reparse(c.Module())
	require.NoError(t, err)
	return text
}

func TestBodyEditChecksOneDefinition(t *testing.T) {
	c := NewChecker(parse(t, clean))
	stamp := incr.NewClock().Next()
	_, err := c.Check(incr.NewPass(stamp, nil), nil)
	require.NoError(t, err)

	edit(t, c, clean, "add(K, 1)", "add(K, 2)")
	res, err := c.Check(incr.NewPass(stamp, nil), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, 1, res.Checked)
	assert.Equal(t, 2, res.Reused)
}

func TestInterfaceEditChecksEverything(t *testing.T) {
	c := NewChecker(parse(t, clean))
	stamp := incr.NewClock().Next()
	_, err := c.Check(incr.NewPass(stamp, nil), nil)
	require.NoError(t, err)

	edit(t, c, clean, "integer b", "float b")
	res, err := c.Check(incr.NewPass(stamp, nil), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Checked)
	assert.Contains(t, codes(res), CodeTypeMismatch)
}

func TestSkipSemanticsStillBinds(t *testing.T) {
	c := NewChecker(parse(t, clean))
	p := incr.NewPass(incr.NewClock().Next(), nil)
	p.SkipSemantics = true
	res, err := c.Check(p, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	assert.Zero(t, res.Checked)
	assert.NotNil(t, c.Lookup("main"))
	assert.Equal(t, 2, c.Bridges().Len())
}

func TestSupersededPass(t *testing.T) {
	c := NewChecker(parse(t, clean))
	stamp := incr.NewClock().Next()
	var g incr.Guard
	p := incr.NewPass(stamp, &g)
	incr.NewPass(stamp, &g)
	_, err := c.Check(p, nil)
	assert.ErrorIs(t, err, incr.ErrSuperseded)
}

func TestRemovedFunctionLosesBridge(t *testing.T) {
	c := NewChecker(parse(t, clean))
	stamp := incr.NewClock().Next()
	_, err := c.Check(incr.NewPass(stamp, nil), nil)
	require.NoError(t, err)
	require.Equal(t, 2, c.Bridges().Len())

	start := strings.Index(clean, "  function add")
	end := strings.Index(clean, "  function main")
	edit(t, c, clean, clean[start:end], "")
	res, err := c.Check(incr.NewPass(stamp, nil), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Bridges().Len())
	assert.Equal(t, []string{CodeUndefined}, codes(res))
}

func TestExplain(t *testing.T) {
	for _, code := range Codes() {
		text, ok := Explain(code)
		assert.True(t, ok, code)
		assert.NotEmpty(t, text, code)
	}
	_, ok := Explain("no-such-code")
	assert.False(t, ok)
}

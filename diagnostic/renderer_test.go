// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/source"
)

// testRenderer returns a Renderer with colors disabled and a fake source reader.
func testRenderer(sources map[string]string) *Renderer {
	return &Renderer{
		Color: ColorNever,
		SourceReader: func(name string) ([]byte, error) {
			s, ok := sources[name]
			if !ok {
				return nil, &fakeErr{name}
			}
			return []byte(s), nil
		},
	}
}

type fakeErr struct{ name string }

func (e *fakeErr) Error() string { return "not found: " + e.name }

func render(t *testing.T, r *Renderer, d Diagnostic) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, d))
	return buf.String()
}

func TestRenderError(t *testing.T) {
	r := testRenderer(map[string]string{
		"a.tdl": "module A {\n  const integer K := f(1, 2);\n}",
	})

	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Code:     "arity",
		Message:  "f expects 1 argument, got 2",
		Spans: []Span{
			{File: "a.tdl", Line: 2, Col: 22, EndCol: 28, Label: "in this call"},
		},
	})

	assert.Contains(t, got, "error[arity]: f expects 1 argument, got 2")
	assert.Contains(t, got, "--> a.tdl:2:22")
	assert.Contains(t, got, " 2 |    const integer K := f(1, 2);")
	assert.Contains(t, got, strings.Repeat(" ", 21)+"^^^^^^^ in this call")
}

func TestRenderWarning(t *testing.T) {
	r := testRenderer(map[string]string{
		"a.tdl": "module A {\n  function f() { var integer x; }\n}",
	})

	got := render(t, r, Diagnostic{
		Severity: SeverityWarning,
		Message:  "x declared and not used",
		Spans:    []Span{{File: "a.tdl", Line: 2, Col: 30, EndCol: 30}},
	})
	assert.Contains(t, got, "warning: x declared and not used")
	assert.Contains(t, got, "--> a.tdl:2:30")
	assert.NotContains(t, got, "warning[")
}

func TestRenderNoSource(t *testing.T) {
	got := render(t, testRenderer(nil), Diagnostic{
		Severity: SeverityError,
		Message:  "some error",
		Spans:    []Span{{File: "<stdin>", Line: 5, Col: 3}},
	})
	assert.Contains(t, got, "error: some error")
	assert.Contains(t, got, "--> <stdin>:5:3")
	assert.Contains(t, got, "|")
	assert.NotContains(t, got, "^")
}

func TestRenderNotes(t *testing.T) {
	r := testRenderer(nil)
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "unknown module Lib",
		Notes:    []string{"modules are matched by name, not by file"},
	})
	assert.Contains(t, got, "= note: modules are matched by name, not by file")

	r.Width = 40
	got = render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "unknown module Lib",
		Notes:    []string{"modules are matched by name, not by file"},
	})
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.Len(t, lines, 3, got)
	assert.Equal(t, "   = note: modules are matched by name,", lines[1])
	assert.Equal(t, strings.Repeat(" ", 11)+"not by file", lines[2])
}

func TestRenderAutoDetectEndCol(t *testing.T) {
	r := testRenderer(map[string]string{
		"a.tdl": "var integer count := 1;",
	})
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "count redeclared",
		Spans:    []Span{{File: "a.tdl", Line: 1, Col: 13}},
	})
	assert.Contains(t, got, "^^^^^\n")
	assert.NotContains(t, got, "^^^^^^")
}

func TestRenderWideRunes(t *testing.T) {
	r := testRenderer(map[string]string{
		"a.tdl": `log("日本", x);`,
	})
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "x is not declared",
		Spans:    []Span{{File: "a.tdl", Line: 1, Col: 15, EndCol: 15}},
	})
	// Each of the two wide runes takes two columns.
	assert.Contains(t, got, "|"+strings.Repeat(" ", 2+12)+"^\n")
}

func TestRenderMultipleDiagnostics(t *testing.T) {
	r := testRenderer(nil)
	var buf bytes.Buffer
	require.NoError(t, r.RenderAll(&buf, []Diagnostic{
		{Severity: SeverityWarning, Message: "first"},
		{Severity: SeverityWarning, Message: "second"},
	}))
	assert.Equal(t, "warning: first\n\nwarning: second\n", buf.String())
}

func TestRenderSummary(t *testing.T) {
	r := testRenderer(nil)
	var buf bytes.Buffer
	require.NoError(t, r.RenderSummary(&buf, nil))
	assert.Empty(t, buf.String())

	require.NoError(t, r.RenderSummary(&buf, []Diagnostic{
		{Severity: SeverityError},
		{Severity: SeverityError},
		{Severity: SeverityWarning},
		{Severity: SeverityNote},
	}))
	assert.Equal(t, "2 errors, 1 warning generated\n", buf.String())
}

func TestFrom(t *testing.T) {
	b := source.New("a.tdl", "module A {\n  var x;\n  f(1,\n 2);\n}")
	ds := From(b, []incr.Diagnostic{
		{Severity: incr.SeverityWarning, Code: "unused-variable", Message: "m", At: &incr.Span{Start: 17, End: 18}},
		{Severity: incr.SeverityError, Code: "arity", Message: "n", At: &incr.Span{Start: 22, End: 31}},
		{Severity: incr.SeverityError, Message: "empty", At: &incr.Span{Start: 11, End: 11}},
	})
	require.Len(t, ds, 3)
	assert.Equal(t, SeverityWarning, ds[0].Severity)
	assert.Equal(t, "unused-variable", ds[0].Code)
	assert.Equal(t, []Span{{File: "a.tdl", Line: 2, Col: 7, EndCol: 7}}, ds[0].Spans)
	assert.Equal(t, []Span{{File: "a.tdl", Line: 3, Col: 3, EndCol: 6}}, ds[1].Spans, "cut at end of line")
	assert.Equal(t, []Span{{File: "a.tdl", Line: 2, Col: 1}}, ds[2].Spans)

	errs, warnings := Count(ds)
	assert.Equal(t, 2, errs)
	assert.Equal(t, 1, warnings)
}

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]ColorMode{"": ColorAuto, "auto": ColorAuto, "always": ColorAlways, "never": ColorNever} {
		got, ok := ParseColorMode(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseColorMode("sometimes")
	assert.False(t, ok)
}

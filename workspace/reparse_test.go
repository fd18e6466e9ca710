// Copyright © 2024 The ELPS authors

package workspace

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/tdl/analysis"
	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/parser/lexer"
	"github.com/luthersystems/tdl/parser/rdparser"
	"github.com/luthersystems/tdl/parser/token"
)

const ret = `module M {
  function f() return integer {
    return 1;
  }
}`

func TestCommentSwallowingTerminatorFails(t *testing.T) {
	w := New()
	w.Open("m.tdl", ret)
	out := editAt(t, w, "m.tdl", "return 1", ";", "//;")
	assert.Equal(t, incr.Failed, out.Kind)

	results, err := w.Check(context.Background())
	require.NoError(t, err)
	assert.Contains(t, codes(results["m.tdl"].Diagnostics), analysis.CodeSyntax)
}

func TestCommentBeforeNewlineIsReparsed(t *testing.T) {
	w := New()
	w.Open("m.tdl", ret)
	out := editAt(t, w, "m.tdl", "return 1", ";", "; // one")
	assert.NotEqual(t, incr.Failed, out.Kind)

	results, err := w.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results["m.tdl"].Diagnostics)
}

const converge = `module M {
  import from Lib all;
  const integer limit := 2 * (3 + 4);
  // helper
  function add(in integer a, inout @lazy float b) return integer {
    var integer sum := a + 1;
    if (sum > limit) { sum := 0; } else { log("x"); }
    return sum; /* done */
  }
  testcase tc() { add(1, 2.5); }
}
`

var fragments = []string{
	" ", " ", "\n", "\n", "  ", "\t",
	"//", "// c\n", "/*", "*/", "/* c */",
	";", ",", "(", ")", "{", "}", ":=", "=", "<", "+", "*",
	"x", "y1", "1", "2.5", `"s"`,
	"log(1);", "var integer v := 1;", "integer q", ", integer r",
}

// boundaries returns the offsets where a token of text starts or ends.
func boundaries(text string) []int {
	offs := []int{0, len(text)}
	lex := lexer.New(token.NewScanner("m.tdl", text, 0))
	for tok := lex.ReadToken(); tok.Type != token.EOF && tok.Type != token.ERROR; tok = lex.ReadToken() {
		offs = append(offs, tok.Source.Pos, tok.End())
	}
	return offs
}

func randomEdit(rng *rand.Rand, text string) (incr.Edit, string) {
	var off int
	if rng.Intn(5) == 0 {
		off = rng.Intn(len(text) + 1)
	} else {
		offs := boundaries(text)
		off = offs[rng.Intn(len(offs))]
	}
	if rng.Intn(4) == 0 && off < len(text) {
		return incr.Edit{Offset: off, Removed: 1 + rng.Intn(min(3, len(text)-off))}, ""
	}
	ins := fragments[rng.Intn(len(fragments))]
	return incr.Edit{Offset: off, Inserted: len(ins)}, ins
}

// dump renders the spans and fields of every node below root.
func dump(root incr.Node) string {
	var b strings.Builder
	incr.Walk(root, func(n incr.Node) bool {
		fmt.Fprintf(&b, "%T %v", n, n.Span())
		switch n := n.(type) {
		case *ast.Ident:
			b.WriteString(" " + n.Name)
		case *ast.TypeRef:
			b.WriteString(" " + n.Name)
		case *ast.Import:
			fmt.Fprintf(&b, " all=%t", n.All)
		case *ast.Function:
			fmt.Fprintf(&b, " %v", n.Kind)
		case *ast.Param:
			fmt.Fprintf(&b, " %v lazy=%t", n.Dir, n.Lazy)
		case ast.Expr:
			b.WriteString(" " + ast.ExprString(n))
		}
		b.WriteByte('\n')
		return true
	})
	return b.String()
}

func TestRandomEditsMatchFreshParse(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))
	w := New()
	text := converge
	m := w.Open("m.tdl", text)
	var accepted, rejected int
	for i := 0; i < 3000; i++ {
		e, ins := randomEdit(rng, text)
		next := text[:e.Offset] + ins + text[e.Offset+e.Removed:]
		desc := fmt.Sprintf("step %d: %v %q in\n%s", i, e, ins, text)

		out, err := w.ApplyEdit(ctx, "m.tdl", e, ins)
		require.NoError(t, err, desc)
		fresh, errs := rdparser.ParseModule("m.tdl", next)
		if len(errs) > 0 {
			require.Equal(t, incr.Failed, out.Kind, "%s\naccepted text the parser rejects: %v", desc, errs)
			rejected++
			m = w.Open("m.tdl", text)
			continue
		}
		if out.Kind == incr.Failed {
			require.NoError(t, w.Rebuild(ctx, "m.tdl"))
		} else {
			accepted++
		}
		var got string
		m.View(func(v *View) { got = dump(v.Tree) })
		require.Equal(t, dump(fresh), got, desc)
		text = next

		if i%100 == 0 {
			_, err := w.Check(ctx)
			require.NoError(t, err, desc)
		}
	}
	assert.Greater(t, accepted, 100)
	assert.Greater(t, rejected, 100)
}

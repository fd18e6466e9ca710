// Copyright © 2024 The ELPS authors

// Package emit generates Go source from a checked tdl module.
//
// The generator never checks anything itself. It requires every definition
// of the module to be fresh for the timestamp of the check it was given, so
// its output always reflects one consistent analysis snapshot. Each module
// becomes one Go file; modules emitted into the same package see each
// other's definitions the way imported modules do.
package emit

import (
	"bytes"
	"errors"
	"fmt"
	"go/constant"
	"go/format"
	gotoken "go/token"
	"sort"

	"github.com/luthersystems/tdl/analysis"
	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/astutil"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/scope"
)

// ErrStale is returned when part of the module was not checked by the
// pass whose timestamp was given.
var ErrStale = errors.New("module not fully checked")

// Options controls generation.
type Options struct {
	// Package is the Go package clause. It defaults to "main".
	Package string
	// Names overrides the generated name of a declaring node. It may
	// return the empty string to keep the default.
	Names func(n incr.Node, name string) string
}

// EvalContext is threaded through the emission of one function.
type EvalContext struct {
	// Depth counts the lazy argument thunks enclosing the current
	// expression.
	Depth int
	// UsedAsLValue is set while emitting an argument bound to an out or
	// inout parameter.
	UsedAsLValue bool
	// Members holds the local variables read anywhere in the function.
	Members map[*ast.VarStmt]bool
}

// Module returns gofmt-formatted Go source for the module checked by c.
// The module must have been checked by a pass stamped stamp.
func Module(c *analysis.Checker, stamp incr.Timestamp, opts Options) ([]byte, error) {
	m := c.Module()
	if err := fresh(m, stamp); err != nil {
		return nil, err
	}
	if opts.Package == "" {
		opts.Package = "main"
	}
	g := &generator{c: c, opts: opts, imports: make(map[string]bool)}
	var body bytes.Buffer
	g.buf = &body
	if m.Defs != nil {
		for _, d := range m.Defs.Defs {
			g.def(d)
		}
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "// Code generated by tdl from module %s. DO NOT EDIT.\n\n", m.ModuleName())
	fmt.Fprintf(&out, "package %s\n\n", opts.Package)
	if len(g.imports) > 0 {
		paths := make([]string, 0, len(g.imports))
		for p := range g.imports {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		out.WriteString("import (\n")
		for _, p := range paths {
			fmt.Fprintf(&out, "\t%q\n", p)
		}
		out.WriteString(")\n\n")
	}
	out.Write(body.Bytes())
	src, err := format.Source(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", m.ModuleName(), err)
	}
	return src, nil
}

func fresh(m *ast.Module, stamp incr.Timestamp) error {
	if stamp.IsZero() || incr.IsStale(m, stamp) {
		return fmt.Errorf("module %s: %w", m.ModuleName(), ErrStale)
	}
	if m.Defs == nil {
		return nil
	}
	for _, d := range m.Defs.Defs {
		if incr.IsStale(d, stamp) {
			return fmt.Errorf("%s at %v: %w", defName(d), d.Span(), ErrStale)
		}
	}
	return nil
}

func defName(d ast.Def) string {
	if id := d.DefName(); id != nil {
		return id.Name
	}
	return "definition"
}

// GeneratedName returns the Go identifier for a tdl identifier. Names that
// are Go keywords or collide with identifiers the generated code relies on
// get a trailing underscore.
func GeneratedName(name string) string {
	if gotoken.IsKeyword(name) || reserved[name] {
		return name + "_"
	}
	return name
}

var reserved = map[string]bool{
	"fmt":     true,
	"int64":   true,
	"float64": true,
	"bool":    true,
	"string":  true,
	"nil":     true,
	"init":    true,
}

// goType maps a tdl type name to a Go type.
func goType(t string) string {
	switch t {
	case ast.TypeInteger:
		return "int64"
	case ast.TypeFloat:
		return "float64"
	case ast.TypeBoolean:
		return "bool"
	case ast.TypeCharstring:
		return "string"
	}
	return "any"
}

type generator struct {
	c       *analysis.Checker
	opts    Options
	buf     *bytes.Buffer
	imports map[string]bool
}

func (g *generator) printf(format string, v ...interface{}) {
	fmt.Fprintf(g.buf, format, v...)
}

// name returns the generated name of the symbol declared by n.
func (g *generator) name(n incr.Node, name string) string {
	if g.opts.Names != nil {
		if s := g.opts.Names(n, name); s != "" {
			return s
		}
	}
	return GeneratedName(name)
}

// symName returns the generated name a reference to sym uses.
func (g *generator) symName(sym *scope.Symbol) string {
	if sym.Decl == nil || sym.Module != "" {
		return GeneratedName(sym.Name)
	}
	return g.name(sym.Decl, sym.Name)
}

func (g *generator) def(d ast.Def) {
	switch d := d.(type) {
	case *ast.Import:
		if d.Module != nil {
			g.printf("// import from %s\n\n", d.Module.Name)
		}
	case *ast.Const:
		g.constDecl(d)
	case *ast.Function:
		g.function(d)
	}
}

func (g *generator) constDecl(k *ast.Const) {
	if k.Name == nil || k.Value == nil {
		return
	}
	value := g.expr(&EvalContext{}, k.Value)
	if v := g.c.ConstValue(k); v != nil && v.Kind() != constant.Float && v.Kind() != constant.Unknown {
		// Folded value, exact for every kind but float.
		value = v.ExactString()
	}
	g.printf("const %s %s = %s\n\n", g.name(k, k.Name.Name), goType(ast.TypeName(k.Type)), value)
}

func (g *generator) function(fn *ast.Function) {
	if fn.Name == nil {
		return
	}
	if fn.Kind != ast.KindFunction {
		g.printf("// %s %s\n", fn.Name.Name, fn.Kind)
	}
	g.printf("func %s(", g.name(fn, fn.Name.Name))
	if fn.Params != nil {
		for i, p := range fn.Params.Params {
			if i > 0 {
				g.printf(", ")
			}
			name := "_"
			if p.Name != nil {
				name = g.name(p, p.Name.Name)
			}
			g.printf("%s %s", name, paramType(p))
		}
	}
	g.printf(")")
	if fn.Return != nil {
		g.printf(" %s", goType(fn.Return.Name))
	}
	g.printf(" ")
	ctx := &EvalContext{Members: readLocals(fn.Body)}
	g.block(ctx, fn.Body)
	g.printf("\n\n")
}

func paramType(p *ast.Param) string {
	t := goType(ast.TypeName(p.Type))
	switch {
	case p.Dir != ast.DirIn:
		return "*" + t
	case p.Lazy:
		return "func() " + t
	}
	return t
}

// readLocals collects the local variables read in blk.
func readLocals(blk *ast.Block) map[*ast.VarStmt]bool {
	read := make(map[*ast.VarStmt]bool)
	if blk == nil {
		return read
	}
	for _, r := range astutil.Refs(blk) {
		if r.Write || r.Symbol.Kind != scope.SymVariable {
			continue
		}
		if v, ok := r.Symbol.Decl.(*ast.VarStmt); ok {
			read[v] = true
		}
	}
	return read
}

// Copyright © 2024 The ELPS authors

package analysis

import (
	"errors"
	"go/constant"
	"sort"
	"strings"

	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/scope"
)

// Checker checks one module tree across passes. It owns the scope arena
// and the bridges of the module's functions.
type Checker struct {
	mod      *ast.Module
	arena    *scope.Arena
	bridges  *scope.Bridges
	universe scope.ID
	module   scope.ID

	// iface is the interface fingerprint seen by the previous pass.
	iface string
	dups  []duplicate
	// values holds folded constant values keyed by declaration.
	values map[*ast.Const]constant.Value
}

type duplicate struct {
	def  ast.Def
	prev *scope.Symbol
}

// NewChecker returns a checker for m.
func NewChecker(m *ast.Module) *Checker {
	a := scope.NewArena(0)
	return &Checker{
		mod:     m,
		arena:   a,
		bridges: scope.NewBridges(a),
		values:  make(map[*ast.Const]constant.Value),
	}
}

// Module returns the checked tree.
func (c *Checker) Module() *ast.Module { return c.mod }

// Arena returns the scope arena of the module.
func (c *Checker) Arena() *scope.Arena { return c.arena }

// Bridges returns the bridge manager. The reparser removes the bridges of
// the definitions it discards through it.
func (c *Checker) Bridges() *scope.Bridges { return c.bridges }

// Scope returns the module scope, scope.None before the first pass.
func (c *Checker) Scope() scope.ID { return c.module }

// ConstValue returns the folded value of k, nil when k has not been
// checked or could not be folded.
func (c *Checker) ConstValue(k *ast.Const) constant.Value {
	return c.values[k]
}

// Lookup resolves name in the module scope.
func (c *Checker) Lookup(name string) *scope.Symbol {
	return c.arena.Lookup(c.module, name)
}

// Check binds the module and checks every stale definition during p. It
// returns incr.ErrSuperseded when a newer pass for the module starts
// before the check completes. Binding always runs, even when p skips
// semantic checks.
func (c *Checker) Check(p *incr.Pass, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	c.bind(cfg)
	if iface := c.fingerprint(cfg); iface != c.iface {
		c.mod.Cache().Invalidate()
		if c.mod.Defs != nil {
			for _, d := range c.mod.Defs.Defs {
				d.Cache().Invalidate()
			}
		}
		c.iface = iface
	}
	res := &Result{Stamp: p.Stamp}
	diags, err := incr.Check(p, c.mod, func(s incr.Sink) { c.checkModule(s, cfg) })
	if err != nil {
		return nil, err
	}
	res.Diagnostics = append(res.Diagnostics, diags...)
	if c.mod.Defs == nil {
		return res, nil
	}
	for _, d := range c.mod.Defs.Defs {
		stale := incr.IsStale(d, p.Stamp)
		diags, err := c.checkDef(p, d)
		if errors.Is(err, incr.ErrSuperseded) {
			return nil, err
		}
		switch {
		case p.SkipSemantics:
		case stale:
			res.Checked++
		default:
			res.Reused++
		}
		res.Diagnostics = append(res.Diagnostics, diags...)
	}
	sort.SliceStable(res.Diagnostics, func(i, j int) bool {
		return res.Diagnostics[i].Span().Start < res.Diagnostics[j].Span().Start
	})
	return res, nil
}

// bind rebuilds the module scope and attaches the bridge of every
// function to it.
func (c *Checker) bind(cfg *Config) {
	a := c.arena
	if !c.universe.Valid() {
		c.universe = a.New(scope.KindModule, scope.None, nil)
		populateBuiltins(a, c.universe)
	}
	if !c.module.Valid() {
		c.module = a.New(scope.KindModule, c.universe, c.mod)
	}
	c.mod.Scope = c.module
	a.ClearSymbols(c.module)
	c.dups = c.dups[:0]

	live := make(map[incr.Node]bool)
	consts := make(map[*ast.Const]bool)
	var imports []*ast.Import
	if c.mod.Defs != nil {
		for _, d := range c.mod.Defs.Defs {
			id := d.DefName()
			if id == nil {
				continue
			}
			var sym *scope.Symbol
			switch d := d.(type) {
			case *ast.Import:
				imports = append(imports, d)
				continue
			case *ast.Const:
				consts[d] = true
				sym = &scope.Symbol{Name: id.Name, Kind: scope.SymConst, Decl: d, Type: ast.TypeName(d.Type), Exported: true}
			case *ast.Function:
				sig := SignatureOf(d)
				sym = &scope.Symbol{Name: id.Name, Kind: d.Kind.SymbolKind(), Decl: d, Type: sig.Return, Sig: sig, Exported: true}
				c.bridges.Attach(d, id.Name, c.module)
				live[d] = true
			}
			if prev := a.Define(c.module, sym); prev != nil {
				c.dups = append(c.dups, duplicate{def: d, prev: prev})
			}
		}
	}
	// Local definitions shadow imported ones. Between imports the first
	// one wins.
	for _, imp := range imports {
		name := imp.Module.Name
		a.Define(c.module, &scope.Symbol{Name: name, Kind: scope.SymImport, Decl: imp})
		for _, ext := range cfg.Exports[name] {
			a.Define(c.module, &scope.Symbol{
				Name:   ext.Name,
				Kind:   ext.Kind,
				Module: ext.Module,
				Type:   ext.Type,
				Sig:    ext.Sig,
			})
		}
	}
	c.bridges.Prune(func(n incr.Node) bool { return live[n] })
	for k := range c.values {
		if !consts[k] {
			delete(c.values, k)
		}
	}
}

// fingerprint renders everything a definition's check may observe about
// other definitions.
func (c *Checker) fingerprint(cfg *Config) string {
	var b strings.Builder
	b.WriteString(c.mod.ModuleName())
	b.WriteByte('\n')
	if c.mod.Defs == nil {
		return b.String()
	}
	for _, d := range c.mod.Defs.Defs {
		id := d.DefName()
		if id == nil {
			continue
		}
		switch d := d.(type) {
		case *ast.Import:
			b.WriteString("import ")
			b.WriteString(id.Name)
			exports, ok := cfg.Exports[id.Name]
			if !ok {
				b.WriteString(" missing\n")
				continue
			}
			b.WriteByte('\n')
			for _, ext := range exports {
				b.WriteString("\t")
				b.WriteString(ext.Kind.String())
				b.WriteByte(' ')
				b.WriteString(ext.Name)
				b.WriteString(ext.Sig.String())
				b.WriteByte(' ')
				b.WriteString(ext.Type)
				b.WriteByte('\n')
			}
		case *ast.Const:
			b.WriteString("const ")
			b.WriteString(ast.TypeName(d.Type))
			b.WriteByte(' ')
			b.WriteString(id.Name)
			b.WriteString(" := ")
			b.WriteString(ast.ExprString(d.Value))
			b.WriteByte('\n')
		case *ast.Function:
			b.WriteString(d.Kind.String())
			b.WriteByte(' ')
			b.WriteString(id.Name)
			b.WriteString(SignatureOf(d).String())
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// checkModule reports problems that involve more than one definition.
func (c *Checker) checkModule(s incr.Sink, cfg *Config) {
	for _, dup := range c.dups {
		id := dup.def.DefName()
		incr.Errorf(s, id, CodeDuplicate, "%s redeclared in this module (previous declaration as %s)", id.Name, dup.prev.Kind)
	}
	if c.mod.Defs == nil {
		return
	}
	for _, d := range c.mod.Defs.Defs {
		imp, ok := d.(*ast.Import)
		if !ok || imp.Module == nil {
			continue
		}
		name := imp.Module.Name
		if name == c.mod.ModuleName() {
			incr.Errorf(s, imp.Module, CodeImportSelf, "module %s imports itself", name)
			continue
		}
		if _, ok := cfg.Exports[name]; !ok {
			incr.Errorf(s, imp.Module, CodeUnknownModule, "unknown module %s", name)
		}
	}
}

// checkDef checks d during p unless it is fresh.
func (c *Checker) checkDef(p *incr.Pass, d ast.Def) ([]incr.Diagnostic, error) {
	switch d := d.(type) {
	case *ast.Const:
		return incr.Check(p, d, func(s incr.Sink) { c.checkConst(p, s, d) })
	case *ast.Function:
		return incr.Check(p, d, func(s incr.Sink) { c.checkFunction(s, d) })
	default:
		return incr.Check(p, d, func(incr.Sink) {})
	}
}

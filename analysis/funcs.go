// Copyright © 2024 The ELPS authors

package analysis

import (
	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/parser/token"
	"github.com/luthersystems/tdl/scope"
)

// body is the state of one function check.
type body struct {
	fn     *ast.Function
	ret    string
	locals []*scope.Symbol
	s      incr.Sink
}

func (c *Checker) checkFunction(s incr.Sink, fn *ast.Function) {
	br, ok := c.bridges.Get(fn)
	if !ok {
		return
	}
	c.bridges.ResetLocals(fn)
	b := &body{fn: fn, ret: ast.TypeName(fn.Return), s: s}
	if fn.Params != nil {
		for _, p := range fn.Params.Params {
			c.bindParam(b, br.Params, p)
		}
	}
	if fn.Body == nil {
		return
	}
	fn.Body.Scope = br.Body
	c.checkBlock(b, fn.Body, br.Body)
	if b.ret != "" && !terminates(fn.Body) && fn.Name != nil {
		incr.Errorf(s, fn.Name, CodeMissingReturn, "missing return at end of %s %s", fn.Kind, fn.Name.Name)
	}
	for _, sym := range b.locals {
		if sym.Refs == 0 {
			v := sym.Decl.(*ast.VarStmt)
			incr.Warnf(s, v.Name, CodeUnusedVariable, "%s declared and not used", sym.Name)
		}
	}
}

func (c *Checker) bindParam(b *body, params scope.ID, p *ast.Param) {
	if p.Name == nil {
		return
	}
	if p.Lazy && p.Dir != ast.DirIn {
		incr.Errorf(b.s, p, CodeLazyNotIn, "@lazy is not allowed on %s parameter %s", p.Dir, p.Name.Name)
	}
	sym := &scope.Symbol{Name: p.Name.Name, Kind: scope.SymParameter, Decl: p, Type: ast.TypeName(p.Type)}
	if prev := c.arena.Define(params, sym); prev != nil {
		incr.Errorf(b.s, p.Name, CodeDuplicate, "duplicate parameter %s", p.Name.Name)
	}
}

func (c *Checker) checkBlock(b *body, blk *ast.Block, sc scope.ID) {
	for _, st := range blk.Stmts {
		c.checkStmt(b, st, sc)
	}
}

// newBlock opens the scope of a nested block.
func (c *Checker) newBlock(b *body, blk *ast.Block, parent scope.ID) {
	id := c.arena.New(scope.KindBlock, parent, blk)
	blk.Scope = id
	c.checkBlock(b, blk, id)
}

func (c *Checker) checkStmt(b *body, st ast.Stmt, sc scope.ID) {
	switch st := st.(type) {
	case *ast.VarStmt:
		c.checkVar(b, st, sc)
	case *ast.AssignStmt:
		c.checkAssign(b, st, sc)
	case *ast.IfStmt:
		if st.Cond != nil {
			typ := c.expr(b, st.Cond, sc)
			assignable(b.s, st.Cond, ast.TypeBoolean, typ, "if condition")
		}
		if st.Then != nil {
			c.newBlock(b, st.Then, sc)
		}
		switch e := st.Else.(type) {
		case *ast.Block:
			c.newBlock(b, e, sc)
		case *ast.IfStmt:
			c.checkStmt(b, e, sc)
		}
	case *ast.ReturnStmt:
		c.checkReturn(b, st, sc)
	case *ast.ExprStmt:
		if call, ok := st.X.(*ast.Call); ok {
			c.call(b, call, sc, false)
			return
		}
		c.expr(b, st.X, sc)
	case *ast.Block:
		c.newBlock(b, st, sc)
	}
}

func (c *Checker) checkVar(b *body, v *ast.VarStmt, sc scope.ID) {
	want := ast.TypeName(v.Type)
	if v.Init != nil {
		typ := c.expr(b, v.Init, sc)
		assignable(b.s, v.Init, want, typ, "variable declaration")
	}
	if v.Name == nil {
		return
	}
	sym := &scope.Symbol{Name: v.Name.Name, Kind: scope.SymVariable, Decl: v, Type: want}
	if prev := c.arena.Define(sc, sym); prev != nil {
		incr.Errorf(b.s, v.Name, CodeDuplicate, "%s redeclared in this block", v.Name.Name)
		return
	}
	b.locals = append(b.locals, sym)
}

func (c *Checker) checkAssign(b *body, st *ast.AssignStmt, sc scope.ID) {
	typ := ""
	if st.Value != nil {
		typ = c.expr(b, st.Value, sc)
	}
	if st.Target == nil {
		return
	}
	sym := c.arena.Lookup(sc, st.Target.Name)
	st.Ref = sym
	if sym == nil {
		incr.Errorf(b.s, st.Target, CodeUndefined, "undefined: %s", st.Target.Name)
		return
	}
	switch {
	case sym.Kind == scope.SymConst:
		incr.Errorf(b.s, st.Target, CodeAssignConst, "cannot assign to constant %s", sym.Name)
		return
	case sym.Kind == scope.SymParameter && paramMode(sym) == scope.ModeIn:
		incr.Errorf(b.s, st.Target, CodeAssignIn, "cannot assign to in parameter %s", sym.Name)
		return
	case sym.Kind != scope.SymVariable && sym.Kind != scope.SymParameter:
		incr.Errorf(b.s, st.Target, CodeNotAssignable, "cannot assign to %s %s", sym.Kind, sym.Name)
		return
	}
	if st.Value != nil {
		assignable(b.s, st.Value, sym.Type, typ, "assignment")
	}
}

func (c *Checker) checkReturn(b *body, st *ast.ReturnStmt, sc scope.ID) {
	switch {
	case st.Value == nil && b.ret != "":
		incr.Errorf(b.s, st, CodeReturn, "missing return value, %s returns %s", b.name(), b.ret)
	case st.Value != nil && b.ret == "":
		c.expr(b, st.Value, sc)
		incr.Errorf(b.s, st.Value, CodeReturn, "%s has no return type", b.name())
	case st.Value != nil:
		typ := c.expr(b, st.Value, sc)
		assignable(b.s, st.Value, b.ret, typ, "return statement")
	}
}

func (b *body) name() string {
	if b.fn.Name == nil {
		return b.fn.Kind.String()
	}
	return b.fn.Kind.String() + " " + b.fn.Name.Name
}

// expr checks x and returns its type, or the empty string when x has no
// value or its type is unknown.
func (c *Checker) expr(b *body, x ast.Expr, sc scope.ID) string {
	switch x := x.(type) {
	case *ast.IntLit:
		return ast.TypeInteger
	case *ast.FloatLit:
		return ast.TypeFloat
	case *ast.StringLit:
		return ast.TypeCharstring
	case *ast.BoolLit:
		return ast.TypeBoolean
	case *ast.Paren:
		return c.expr(b, x.X, sc)
	case *ast.Name:
		sym := c.arena.Lookup(sc, x.Name)
		x.Ref = sym
		switch {
		case sym == nil:
			incr.Errorf(b.s, x, CodeUndefined, "undefined: %s", x.Name)
			return ""
		case sym.Kind.Callable() || sym.Kind == scope.SymImport:
			incr.Errorf(b.s, x, CodeNotValue, "%s %s used as value", sym.Kind, x.Name)
			return ""
		}
		sym.Refs++
		return sym.Type
	case *ast.Call:
		return c.call(b, x, sc, true)
	case *ast.Unary:
		typ := c.expr(b, x.X, sc)
		unaryOperand(b.s, x, typ)
		return typ
	case *ast.Binary:
		xt := c.expr(b, x.X, sc)
		yt := c.expr(b, x.Y, sc)
		typ, _ := binaryOperands(b.s, x, xt, yt)
		return typ
	}
	return ""
}

func (c *Checker) call(b *body, call *ast.Call, sc scope.ID, value bool) string {
	if call.Func == nil {
		return ""
	}
	name := call.Func.Name
	sym := c.arena.Lookup(sc, name)
	call.Ref = sym
	if sym == nil {
		incr.Errorf(b.s, call.Func, CodeUndefined, "undefined: %s", name)
		for _, arg := range call.Args {
			c.expr(b, arg, sc)
		}
		return ""
	}
	if !sym.Kind.Callable() {
		incr.Errorf(b.s, call.Func, CodeNotCallable, "cannot call non-function %s (%s)", name, sym.Kind)
		for _, arg := range call.Args {
			c.expr(b, arg, sc)
		}
		return ""
	}
	sig := sym.Sig
	if want := sig.MaxArity(); want >= 0 && len(call.Args) != want {
		incr.Errorf(b.s, call, CodeArity, "wrong number of arguments to %s: have %d, want %d", name, len(call.Args), want)
	}
	for i, arg := range call.Args {
		if sig == nil || i >= len(sig.Params) {
			c.expr(b, arg, sc)
			continue
		}
		param := sig.Params[i]
		if param.Mode.Writes() {
			c.checkWritableArg(b, arg, sc, name, param)
		}
		typ := c.expr(b, arg, sc)
		assignable(b.s, arg, param.Type, typ, "argument to "+name)
	}
	if value && sig != nil && sig.Return == "" {
		incr.Errorf(b.s, call, CodeNoValue, "%s %s does not return a value", sym.Kind, name)
		return ""
	}
	if sig == nil {
		return sym.Type
	}
	return sig.Return
}

// checkWritableArg verifies that an argument bound to an out or inout
// parameter names a variable the caller may write.
func (c *Checker) checkWritableArg(b *body, arg ast.Expr, sc scope.ID, fn string, param scope.Param) {
	n, ok := ast.Unparen(arg).(*ast.Name)
	if ok {
		sym := c.arena.Lookup(sc, n.Name)
		if sym == nil {
			return
		}
		if sym.Kind == scope.SymVariable || (sym.Kind == scope.SymParameter && paramMode(sym) != scope.ModeIn) {
			return
		}
	}
	incr.Errorf(b.s, arg, CodeNotAssignable, "argument for %s parameter %s of %s must be a writable variable", param.Mode, param.Name, fn)
}

func paramMode(sym *scope.Symbol) scope.Mode {
	if p, ok := sym.Decl.(*ast.Param); ok {
		return p.Dir.Mode()
	}
	return scope.ModeIn
}

// terminates reports whether control cannot reach the end of blk.
func terminates(blk *ast.Block) bool {
	if blk == nil || len(blk.Stmts) == 0 {
		return false
	}
	return stmtTerminates(blk.Stmts[len(blk.Stmts)-1])
}

func stmtTerminates(st ast.Stmt) bool {
	switch st := st.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.Block:
		return terminates(st)
	case *ast.IfStmt:
		if st.Else == nil || !terminates(st.Then) {
			return false
		}
		return stmtTerminates(st.Else)
	}
	return false
}

// assignable reports a mismatch between a required and an actual type.
// Unknown types are accepted so one error does not cascade.
func assignable(s incr.Sink, at incr.Node, want, got, context string) bool {
	if want == "" || got == "" || want == got {
		return true
	}
	incr.Errorf(s, at, CodeTypeMismatch, "cannot use %s value as %s in %s", got, want, context)
	return false
}

func unaryOperand(s incr.Sink, x *ast.Unary, typ string) bool {
	if typ == "" {
		return true
	}
	switch x.Op {
	case token.NOT:
		if typ != ast.TypeBoolean {
			incr.Errorf(s, x, CodeTypeMismatch, "operator not requires boolean operand, have %s", typ)
			return false
		}
	case token.MINUS:
		if typ != ast.TypeInteger && typ != ast.TypeFloat {
			incr.Errorf(s, x, CodeTypeMismatch, "operator - requires numeric operand, have %s", typ)
			return false
		}
	}
	return true
}

// binaryOperands checks the operand types of x and returns its result
// type.
func binaryOperands(s incr.Sink, x *ast.Binary, xt, yt string) (string, bool) {
	result := xt
	switch x.Op {
	case token.EQ, token.NEQ, token.LT, token.LE, token.GT, token.GE:
		result = ast.TypeBoolean
	}
	if xt == "" || yt == "" {
		if result == ast.TypeBoolean {
			return result, false
		}
		return "", false
	}
	if xt != yt {
		incr.Errorf(s, x, CodeTypeMismatch, "mismatched types %s and %s for operator %s", xt, yt, x.Op)
		return result, false
	}
	ok := true
	switch x.Op {
	case token.AND, token.OR:
		ok = xt == ast.TypeBoolean
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.LT, token.LE, token.GT, token.GE:
		ok = xt == ast.TypeInteger || xt == ast.TypeFloat
	case token.MOD:
		ok = xt == ast.TypeInteger
	}
	if !ok {
		incr.Errorf(s, x, CodeTypeMismatch, "operator %s not defined on %s", x.Op, xt)
	}
	return result, ok
}

// Copyright © 2024 The ELPS authors

package emit

import (
	"strings"

	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/parser/token"
	"github.com/luthersystems/tdl/scope"
)

func (g *generator) block(ctx *EvalContext, blk *ast.Block) {
	g.printf("{\n")
	if blk != nil {
		for _, st := range blk.Stmts {
			g.stmt(ctx, st)
		}
	}
	g.printf("}")
}

func (g *generator) stmt(ctx *EvalContext, st ast.Stmt) {
	switch st := st.(type) {
	case *ast.VarStmt:
		name := g.name(st, st.Name.Name)
		if st.Init != nil {
			g.printf("var %s %s = %s\n", name, goType(ast.TypeName(st.Type)), g.expr(ctx, st.Init))
		} else {
			g.printf("var %s %s\n", name, goType(ast.TypeName(st.Type)))
		}
		if !ctx.Members[st] {
			g.printf("_ = %s\n", name)
		}
	case *ast.AssignStmt:
		g.printf("%s = %s\n", g.lvalue(st.Ref), g.expr(ctx, st.Value))
	case *ast.IfStmt:
		g.ifStmt(ctx, st)
		g.printf("\n")
	case *ast.ReturnStmt:
		if st.Value == nil {
			g.printf("return\n")
			return
		}
		g.printf("return %s\n", g.expr(ctx, st.Value))
	case *ast.ExprStmt:
		if _, ok := ast.Unparen(st.X).(*ast.Call); ok {
			g.printf("%s\n", g.expr(ctx, st.X))
			return
		}
		g.printf("_ = %s\n", g.expr(ctx, st.X))
	case *ast.Block:
		g.block(ctx, st)
		g.printf("\n")
	}
}

func (g *generator) ifStmt(ctx *EvalContext, st *ast.IfStmt) {
	g.printf("if %s ", g.expr(ctx, st.Cond))
	g.block(ctx, st.Then)
	switch e := st.Else.(type) {
	case *ast.Block:
		g.printf(" else ")
		g.block(ctx, e)
	case *ast.IfStmt:
		g.printf(" else ")
		g.ifStmt(ctx, e)
	}
}

// lvalue returns the assignable form of sym.
func (g *generator) lvalue(sym *scope.Symbol) string {
	if writableParam(sym) {
		return "*" + g.symName(sym)
	}
	return g.symName(sym)
}

func writableParam(sym *scope.Symbol) bool {
	if sym == nil || sym.Kind != scope.SymParameter {
		return false
	}
	p, ok := sym.Decl.(*ast.Param)
	return ok && p.Dir != ast.DirIn
}

func lazyParam(sym *scope.Symbol) bool {
	if sym == nil || sym.Kind != scope.SymParameter {
		return false
	}
	p, ok := sym.Decl.(*ast.Param)
	return ok && p.Lazy
}

func (g *generator) expr(ctx *EvalContext, x ast.Expr) string {
	switch x := x.(type) {
	case *ast.IntLit, *ast.FloatLit, *ast.StringLit, *ast.BoolLit:
		return ast.ExprString(x)
	case *ast.Paren:
		return "(" + g.expr(ctx, x.X) + ")"
	case *ast.Name:
		return g.ref(ctx, x)
	case *ast.Unary:
		inner := g.expr(ctx, x.X)
		if x.Op == token.NOT {
			return "!" + inner
		}
		if strings.HasPrefix(inner, "-") {
			return "-(" + inner + ")"
		}
		return "-" + inner
	case *ast.Binary:
		return g.expr(ctx, x.X) + " " + goBinary(x.Op) + " " + g.expr(ctx, x.Y)
	case *ast.Call:
		return g.call(ctx, x)
	}
	return "nil"
}

// ref emits a reference to a value.
func (g *generator) ref(ctx *EvalContext, x *ast.Name) string {
	sym := x.Ref
	if sym == nil {
		return GeneratedName(x.Name)
	}
	switch {
	case ctx.UsedAsLValue && writableParam(sym):
		// Already a pointer.
		return g.symName(sym)
	case ctx.UsedAsLValue:
		return "&" + g.symName(sym)
	case writableParam(sym):
		return "(*" + g.symName(sym) + ")"
	case lazyParam(sym):
		return g.symName(sym) + "()"
	}
	return g.symName(sym)
}

func (g *generator) call(ctx *EvalContext, call *ast.Call) string {
	sym := call.Ref
	args := make([]string, len(call.Args))
	for i, arg := range call.Args {
		var param *scope.Param
		if sym != nil && sym.Sig != nil && i < len(sym.Sig.Params) {
			param = &sym.Sig.Params[i]
		}
		args[i] = g.arg(ctx, arg, param)
	}
	if sym != nil && sym.Kind == scope.SymBuiltin {
		g.imports["fmt"] = true
		return "fmt.Println(" + strings.Join(args, ", ") + ")"
	}
	name := call.Func.Name
	if sym != nil {
		name = g.symName(sym)
	}
	return name + "(" + strings.Join(args, ", ") + ")"
}

// arg emits an argument bound to param, which is nil for variadic
// arguments.
func (g *generator) arg(ctx *EvalContext, arg ast.Expr, param *scope.Param) string {
	switch {
	case param == nil:
		return g.expr(ctx, arg)
	case param.Mode.Writes():
		lv := *ctx
		lv.UsedAsLValue = true
		return g.expr(&lv, ast.Unparen(arg))
	case param.Lazy:
		if x, ok := ast.Unparen(arg).(*ast.Name); ok && lazyParam(x.Ref) {
			// Forward the thunk instead of wrapping it again.
			return g.symName(x.Ref)
		}
		inner := *ctx
		inner.Depth++
		return "func() " + goType(param.Type) + " { return " + g.expr(&inner, arg) + " }"
	}
	return g.expr(ctx, arg)
}

func goBinary(op token.Type) string {
	switch op {
	case token.AND:
		return "&&"
	case token.OR:
		return "||"
	case token.MOD:
		return "%"
	}
	return op.String()
}

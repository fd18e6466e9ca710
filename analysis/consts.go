// Copyright © 2024 The ELPS authors

package analysis

import (
	"errors"
	"go/constant"
	gotoken "go/token"

	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/parser/token"
	"github.com/luthersystems/tdl/scope"
)

func (c *Checker) checkConst(p *incr.Pass, s incr.Sink, k *ast.Const) {
	delete(c.values, k)
	if k.Value == nil {
		return
	}
	v, typ := c.fold(p, s, k.Value)
	want := ast.TypeName(k.Type)
	if !assignable(s, k.Value, want, typ, "constant declaration") {
		return
	}
	if v != nil {
		c.values[k] = v
	}
}

// fold evaluates a constant expression. It returns the type of x even when
// the value cannot be computed.
func (c *Checker) fold(p *incr.Pass, s incr.Sink, x ast.Expr) (constant.Value, string) {
	switch x := x.(type) {
	case *ast.IntLit:
		return constant.MakeInt64(x.Value), ast.TypeInteger
	case *ast.FloatLit:
		return constant.MakeFloat64(x.Value), ast.TypeFloat
	case *ast.StringLit:
		return constant.MakeString(x.Value), ast.TypeCharstring
	case *ast.BoolLit:
		return constant.MakeBool(x.Value), ast.TypeBoolean
	case *ast.Paren:
		return c.fold(p, s, x.X)
	case *ast.Name:
		return c.foldName(p, s, x)
	case *ast.Call:
		name := "call"
		if x.Func != nil {
			name = x.Func.Name
			x.Ref = c.Lookup(name)
		}
		incr.Errorf(s, x, CodeNonConstant, "%s(...) is not a constant expression", name)
		if x.Ref != nil {
			return nil, x.Ref.Type
		}
		return nil, ""
	case *ast.Unary:
		v, typ := c.fold(p, s, x.X)
		if !unaryOperand(s, x, typ) || v == nil {
			return nil, typ
		}
		return constant.UnaryOp(goOp(x.Op), v, 0), typ
	case *ast.Binary:
		xv, xt := c.fold(p, s, x.X)
		yv, yt := c.fold(p, s, x.Y)
		typ, ok := binaryOperands(s, x, xt, yt)
		if !ok || xv == nil || yv == nil {
			return nil, typ
		}
		return foldBinary(s, x, xv, yv, xt, typ)
	}
	return nil, ""
}

func (c *Checker) foldName(p *incr.Pass, s incr.Sink, x *ast.Name) (constant.Value, string) {
	sym := c.Lookup(x.Name)
	x.Ref = sym
	switch {
	case sym == nil:
		incr.Errorf(s, x, CodeUndefined, "undefined: %s", x.Name)
		return nil, ""
	case sym.Kind != scope.SymConst:
		if sym.Kind.Callable() || sym.Kind == scope.SymImport {
			incr.Errorf(s, x, CodeNotValue, "%s %s used as value", sym.Kind, x.Name)
		} else {
			incr.Errorf(s, x, CodeNonConstant, "%s is not a constant", x.Name)
		}
		return nil, sym.Type
	}
	dep, ok := sym.Decl.(*ast.Const)
	if !ok {
		// Imported constants have a type but no value in this module.
		return nil, sym.Type
	}
	sym.Refs++
	_, err := c.checkDef(p, dep)
	if errors.Is(err, incr.ErrCycle) {
		incr.Errorf(s, x, CodeCircular, "initialization cycle: %s refers to itself", x.Name)
		return nil, sym.Type
	}
	return c.values[dep], sym.Type
}

func foldBinary(s incr.Sink, x *ast.Binary, xv, yv constant.Value, operand, result string) (constant.Value, string) {
	switch x.Op {
	case token.EQ, token.NEQ, token.LT, token.LE, token.GT, token.GE:
		return constant.MakeBool(constant.Compare(xv, goOp(x.Op), yv)), result
	case token.SLASH, token.MOD:
		if constant.Sign(yv) == 0 {
			incr.Errorf(s, x, CodeDivByZero, "division by zero")
			return nil, result
		}
		if x.Op == token.MOD {
			return constant.BinaryOp(xv, gotoken.REM, yv), result
		}
		if operand == ast.TypeInteger {
			return constant.BinaryOp(xv, gotoken.QUO_ASSIGN, yv), result
		}
	}
	return constant.BinaryOp(xv, goOp(x.Op), yv), result
}

// goOp maps an operator to the go/constant operator with the same
// semantics on operands of a single type.
func goOp(op token.Type) gotoken.Token {
	switch op {
	case token.PLUS:
		return gotoken.ADD
	case token.MINUS:
		return gotoken.SUB
	case token.STAR:
		return gotoken.MUL
	case token.SLASH:
		return gotoken.QUO
	case token.MOD:
		return gotoken.REM
	case token.AND:
		return gotoken.LAND
	case token.OR:
		return gotoken.LOR
	case token.NOT:
		return gotoken.NOT
	case token.EQ:
		return gotoken.EQL
	case token.NEQ:
		return gotoken.NEQ
	case token.LT:
		return gotoken.LSS
	case token.LE:
		return gotoken.LEQ
	case token.GT:
		return gotoken.GTR
	case token.GE:
		return gotoken.GEQ
	}
	return gotoken.ILLEGAL
}

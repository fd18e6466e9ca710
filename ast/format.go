// Copyright © 2024 The ELPS authors

package ast

import (
	"strconv"
	"strings"

	"github.com/luthersystems/tdl/parser/token"
)

// ExprString renders x in source syntax with canonical spacing.
func ExprString(x Expr) string {
	var b strings.Builder
	writeExpr(&b, x)
	return b.String()
}

func writeExpr(b *strings.Builder, x Expr) {
	switch x := x.(type) {
	case nil:
		b.WriteString("<nil>")
	case *IntLit:
		b.WriteString(strconv.FormatInt(x.Value, 10))
	case *FloatLit:
		s := strconv.FormatFloat(x.Value, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		b.WriteString(s)
	case *StringLit:
		b.WriteString(strconv.Quote(x.Value))
	case *BoolLit:
		b.WriteString(strconv.FormatBool(x.Value))
	case *Name:
		b.WriteString(x.Name)
	case *Call:
		if x.Func != nil {
			b.WriteString(x.Func.Name)
		}
		b.WriteByte('(')
		for i, arg := range x.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, arg)
		}
		b.WriteByte(')')
	case *Unary:
		b.WriteString(x.Op.String())
		if x.Op == token.NOT {
			b.WriteByte(' ')
		}
		writeExpr(b, x.X)
	case *Binary:
		writeExpr(b, x.X)
		b.WriteByte(' ')
		b.WriteString(x.Op.String())
		b.WriteByte(' ')
		writeExpr(b, x.Y)
	case *Paren:
		b.WriteByte('(')
		writeExpr(b, x.X)
		b.WriteByte(')')
	}
}

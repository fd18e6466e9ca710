// Copyright © 2024 The ELPS authors

package analysis

import "github.com/luthersystems/tdl/scope"

// builtins are predefined in a scope enclosing every module.
var builtins = []*scope.Symbol{
	{Name: "log", Kind: scope.SymBuiltin, Sig: &scope.Signature{Variadic: true}},
}

func populateBuiltins(a *scope.Arena, id scope.ID) {
	for _, b := range builtins {
		sym := *b
		a.Define(id, &sym)
	}
}

// Copyright © 2024 The ELPS authors

package scope

import "github.com/luthersystems/tdl/incr"

// SymbolKind classifies a symbol definition.
type SymbolKind int

const (
	SymConst     SymbolKind = iota // module level constant
	SymFunction                    // function definition
	SymAltstep                     // altstep definition
	SymTestcase                    // testcase definition
	SymParameter                   // formal parameter
	SymVariable                    // local variable
	SymImport                      // imported module name
	SymBuiltin                     // predefined function
)

func (k SymbolKind) String() string {
	switch k {
	case SymConst:
		return "constant"
	case SymFunction:
		return "function"
	case SymAltstep:
		return "altstep"
	case SymTestcase:
		return "testcase"
	case SymParameter:
		return "parameter"
	case SymVariable:
		return "variable"
	case SymImport:
		return "import"
	case SymBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Callable reports whether symbols of kind k can be invoked.
func (k SymbolKind) Callable() bool {
	switch k {
	case SymFunction, SymAltstep, SymTestcase, SymBuiltin:
		return true
	}
	return false
}

// Symbol is a defined name in a scope.
type Symbol struct {
	Name string
	Kind SymbolKind
	// Decl is the declaring node, nil for builtins.
	Decl incr.Node
	// Module names the module that exported the symbol, empty for local
	// definitions.
	Module string
	Scope  ID
	// Type is the declared type of a value, or the return type of a
	// callable. It is empty when unknown or for callables without a
	// result.
	Type string
	// Sig is set for callables.
	Sig *Signature
	// Refs counts reads seen by the last check of the enclosing
	// definition.
	Refs int
	// Exported is set for module level definitions visible to importers.
	Exported bool
}

// Copyright © 2024 The ELPS authors

package analysis

import "sort"

// Diagnostic codes reported by the checker.
const (
	CodeDuplicate      = "duplicate-definition"
	CodeImportSelf     = "import-self"
	CodeUnknownModule  = "unknown-module"
	CodeUndefined      = "undefined"
	CodeNotCallable    = "not-callable"
	CodeNotValue       = "not-a-value"
	CodeNoValue        = "no-value"
	CodeArity          = "arity"
	CodeNotAssignable  = "not-assignable"
	CodeAssignConst    = "assign-to-const"
	CodeAssignIn       = "assign-to-in-param"
	CodeLazyNotIn      = "lazy-not-in"
	CodeTypeMismatch   = "type-mismatch"
	CodeReturn         = "return-mismatch"
	CodeMissingReturn  = "missing-return"
	CodeCircular       = "circular-reference"
	CodeNonConstant    = "non-constant"
	CodeDivByZero      = "division-by-zero"
	CodeUnusedVariable = "unused-variable"
	CodeSyntax         = "syntax"
)

var explanations = map[string]string{
	CodeDuplicate:      "Two definitions in the same scope share a name. Only the first one is visible; rename or remove the other.",
	CodeImportSelf:     "A module imports its own name. Definitions of a module are always visible inside it.",
	CodeUnknownModule:  "An import names a module that is not part of the workspace.",
	CodeUndefined:      "A name is used that no enclosing scope, imported module or builtin defines.",
	CodeNotCallable:    "A constant, parameter or variable is called as if it were a function.",
	CodeNotValue:       "A function, altstep, testcase or module name is used where a value is expected. Call it instead.",
	CodeNoValue:        "The result of a call is used but the callee declares no return type.",
	CodeArity:          "A call passes a different number of arguments than the callee declares parameters.",
	CodeNotAssignable:  "An out or inout parameter receives an argument that is not a variable or writable parameter.",
	CodeAssignConst:    "A constant is the target of an assignment.",
	CodeAssignIn:       "An in parameter is the target of an assignment. Declare it out or inout to write it.",
	CodeLazyNotIn:      "@lazy delays evaluation of an argument and is only meaningful on in parameters.",
	CodeTypeMismatch:   "A value of one type is used where another type is required. There are no implicit conversions.",
	CodeReturn:         "A return statement does not match the declared return type of its definition.",
	CodeMissingReturn:  "A definition with a return type can reach the end of its body without returning a value.",
	CodeCircular:       "A constant initializer depends on itself, directly or through other constants.",
	CodeNonConstant:    "A constant initializer calls a function or otherwise cannot be evaluated before run time.",
	CodeDivByZero:      "A constant expression divides by zero.",
	CodeUnusedVariable: "A local variable is declared but its value is never read.",
	CodeSyntax:         "The source does not follow the module grammar. Semantic checks are skipped until it does.",
}

// Explain returns the long description of a diagnostic code.
func Explain(code string) (string, bool) {
	text, ok := explanations[code]
	return text, ok
}

// Codes lists every diagnostic code in lexical order.
func Codes() []string {
	codes := make([]string, 0, len(explanations))
	for code := range explanations {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

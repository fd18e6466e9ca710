// Copyright © 2024 The ELPS authors

package scope

import "strings"

// Mode is the passing mode of a formal parameter.
type Mode int

const (
	ModeIn Mode = iota
	ModeOut
	ModeInout
)

func (m Mode) String() string {
	switch m {
	case ModeIn:
		return "in"
	case ModeOut:
		return "out"
	case ModeInout:
		return "inout"
	default:
		return "unknown"
	}
}

// Writes reports whether a callee may assign the argument.
func (m Mode) Writes() bool {
	return m == ModeOut || m == ModeInout
}

// Param describes one formal parameter of a callable.
type Param struct {
	Name string
	Type string
	Mode Mode
	Lazy bool
}

// String renders p as written in a parameter list.
func (p Param) String() string {
	var b strings.Builder
	if p.Mode != ModeIn {
		b.WriteString(p.Mode.String())
		b.WriteByte(' ')
	}
	if p.Lazy {
		b.WriteString("@lazy ")
	}
	b.WriteString(p.Type)
	if p.Name != "" {
		b.WriteByte(' ')
		b.WriteString(p.Name)
	}
	return b.String()
}

// Signature describes the parameters of a callable symbol.
type Signature struct {
	Params []Param
	// Return is empty for callables that produce no value.
	Return string
	// Variadic callables accept any number of arguments of any type.
	Variadic bool
}

// MinArity returns the minimum number of arguments required.
func (sig *Signature) MinArity() int {
	if sig == nil || sig.Variadic {
		return 0
	}
	return len(sig.Params)
}

// MaxArity returns the maximum number of arguments accepted, or -1 when
// there is no limit.
func (sig *Signature) MaxArity() int {
	if sig == nil || sig.Variadic {
		return -1
	}
	return len(sig.Params)
}

// String renders the signature the way it is written in source.
func (sig *Signature) String() string {
	if sig == nil {
		return "(...)"
	}
	var b strings.Builder
	b.WriteByte('(')
	if sig.Variadic {
		b.WriteString("...")
	}
	for i, p := range sig.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	if sig.Return != "" {
		b.WriteString(" return ")
		b.WriteString(sig.Return)
	}
	return b.String()
}

// Copyright © 2018 The ELPS authors

package token

import (
	"fmt"
	"sort"
)

// Source is an abstract stream of tokens which allows one token lookahead.
type Source interface {
	// Token returns the current token.  Token returns nil if Scan has not been
	// called.
	Token() *Token
	// Peek returns the next token in the stream.  At the end of the stream
	// Peek should return a value to indicate the lack of a token (EOF).
	Peek() *Token
	// Scan advances the token stream if possible.  If there are no tokens
	// remaining Scan returns false.
	Scan() bool
}

type Token struct {
	Type   Type
	Text   string
	Source *Location
}

// End returns the buffer offset just past the token.
func (tok *Token) End() int {
	return tok.Source.Pos + len(tok.Text)
}

type Type uint

// Type constants used for the tdl lexer/parser.
const (
	INVALID Type = iota
	ERROR
	EOF

	COMMENT

	// Atomic expressions & literals
	IDENT
	INT
	FLOAT
	STRING

	keywordStart
	MODULE
	IMPORT
	FROM
	ALL
	CONST
	FUNCTION
	ALTSTEP
	TESTCASE
	RETURN
	VAR
	IF
	ELSE
	IN
	OUT
	INOUT
	TRUE
	FALSE
	AND
	OR
	NOT
	MOD
	TYPENAME // integer, float, boolean, charstring
	keywordEnd

	// Operators
	ASSIGN
	EQ
	NEQ
	LT
	LE
	GT
	GE
	PLUS
	MINUS
	STAR
	SLASH
	LAZY

	// Delimiters
	PAREN_L
	PAREN_R
	BRACE_L
	BRACE_R
	COMMA
	SEMI

	numTokenTypes
)

var typeStrings = [numTokenTypes]string{
	INVALID:  "invalid",
	ERROR:    "error",
	EOF:      "EOF",
	COMMENT:  "comment",
	IDENT:    "identifier",
	INT:      "integer literal",
	FLOAT:    "float literal",
	STRING:   "string literal",
	MODULE:   "module",
	IMPORT:   "import",
	FROM:     "from",
	ALL:      "all",
	CONST:    "const",
	FUNCTION: "function",
	ALTSTEP:  "altstep",
	TESTCASE: "testcase",
	RETURN:   "return",
	VAR:      "var",
	IF:       "if",
	ELSE:     "else",
	IN:       "in",
	OUT:      "out",
	INOUT:    "inout",
	TRUE:     "true",
	FALSE:    "false",
	AND:      "and",
	OR:       "or",
	NOT:      "not",
	MOD:      "mod",
	TYPENAME: "type name",
	ASSIGN:   ":=",
	EQ:       "==",
	NEQ:      "!=",
	LT:       "<",
	LE:       "<=",
	GT:       ">",
	GE:       ">=",
	PLUS:     "+",
	MINUS:    "-",
	STAR:     "*",
	SLASH:    "/",
	LAZY:     "@lazy",
	PAREN_L:  "(",
	PAREN_R:  ")",
	BRACE_L:  "{",
	BRACE_R:  "}",
	COMMA:    ",",
	SEMI:     ";",
}

func (typ Type) String() string {
	if typ >= numTokenTypes || typeStrings[typ] == "" {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// IsKeyword reports whether typ is a reserved word.
func (typ Type) IsKeyword() bool {
	return keywordStart < typ && typ < keywordEnd
}

var keywords = map[string]Type{
	"module":     MODULE,
	"import":     IMPORT,
	"from":       FROM,
	"all":        ALL,
	"const":      CONST,
	"function":   FUNCTION,
	"altstep":    ALTSTEP,
	"testcase":   TESTCASE,
	"return":     RETURN,
	"var":        VAR,
	"if":         IF,
	"else":       ELSE,
	"in":         IN,
	"out":        OUT,
	"inout":      INOUT,
	"true":       TRUE,
	"false":      FALSE,
	"and":        AND,
	"or":         OR,
	"not":        NOT,
	"mod":        MOD,
	"integer":    TYPENAME,
	"float":      TYPENAME,
	"boolean":    TYPENAME,
	"charstring": TYPENAME,
}

// Keywords returns the reserved words in sorted order.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for w := range keywords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Lookup maps an identifier to its keyword type, or IDENT.
func Lookup(word string) Type {
	if typ, ok := keywords[word]; ok {
		return typ
	}
	return IDENT
}

type Location struct {
	File string // a name representing the source stream
	Pos  int    // byte offset in the whole buffer
	Line int    // line number (starting at 1 when tracked)
	Col  int    // line column number (starting at 1 when tracked)
}

func (loc *Location) String() string {
	switch {
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}

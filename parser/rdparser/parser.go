// Copyright © 2018 The ELPS authors

package rdparser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/parser/lexer"
	"github.com/luthersystems/tdl/parser/token"
)

// Grammar implements incr.Grammar for tdl source text.
type Grammar struct {
	// File names the buffer in error locations.
	File string
}

// NewGrammar returns a Grammar reporting errors against file.
func NewGrammar(file string) *Grammar {
	return &Grammar{File: file}
}

// Parse implements incr.Grammar.  The fragment must hold exactly what entry
// describes, surrounded by nothing but whitespace and comments.
func (g *Grammar) Parse(entry incr.Entry, text string, base int) (nodes []incr.Node, err error) {
	p := New(token.NewScanner(g.File, text, base))
	defer p.recover(&err)
	switch entry {
	case ast.EntryIdent:
		nodes = append(nodes, p.ParseIdent())
	case ast.EntryType:
		nodes = append(nodes, p.ParseType())
	case ast.EntryExpr:
		nodes = append(nodes, p.ParseExpr())
	case ast.EntryParams:
		for _, param := range p.parseParamRun(token.EOF) {
			nodes = append(nodes, param)
		}
	case ast.EntryStmts:
		for !p.src.IsEOF() {
			nodes = append(nodes, p.ParseStmt())
		}
	case ast.EntryDefs:
		for !p.src.IsEOF() {
			nodes = append(nodes, p.ParseDef())
		}
	case ast.EntryModule:
		m := p.ParseModule()
		m.Pos = incr.Span{Start: base, End: base + len(text)}
		nodes = append(nodes, m)
	default:
		return nil, fmt.Errorf("unknown grammar entry %q", entry)
	}
	p.expect(token.EOF)
	return nodes, nil
}

// Isolated implements incr.Isolator.  The text before target is unchanged
// by the edit being reparsed, so lexing at target.Start begins between
// tokens; what remains is a token joining across either end.
func (g *Grammar) Isolated(text string, target incr.Span) bool {
	frag := text[target.Start:target.End]
	if target.Start > 0 && target.Start < len(text) {
		prev, _ := utf8.DecodeLastRuneInString(text[:target.Start])
		first, _ := utf8.DecodeRuneInString(text[target.Start:])
		if joins(prev, first) {
			return false
		}
	}
	if frag == "" {
		return true
	}
	var last *token.Token
	lex := lexer.New(token.NewScanner(g.File, frag, target.Start))
	for tok := lex.ReadToken(); tok.Type != token.EOF; tok = lex.ReadToken() {
		if tok.Type == token.ERROR {
			// The fragment does not parse either way.
			return true
		}
		last = tok
	}
	if last == nil || last.End() < target.End {
		return true
	}
	// The last token reaches the end of the fragment.  In the buffer it
	// may run on, as a line comment does up to the newline.
	pos := last.Source.Pos
	tok := lexer.New(token.NewScanner(g.File, text[pos:], pos)).ReadToken()
	return tok.Type == last.Type && tok.Text == last.Text
}

// joins reports whether a token ending in prev would absorb a token
// starting with next.
func joins(prev, next rune) bool {
	switch {
	case isWord(prev) && isWord(next):
		return true
	case next == '=':
		return strings.ContainsRune(":=!<>", prev)
	case prev == '/':
		return next == '/' || next == '*'
	}
	return false
}

func isWord(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

// ParseModule parses a whole buffer.  Unlike Grammar.Parse it recovers from
// errors at definition boundaries: the returned module holds every
// definition that could be read and errs lists what could not.  The module
// is never nil.
func ParseModule(file, text string) (*ast.Module, []error) {
	p := New(token.NewScanner(file, text, 0))
	p.recovering = true
	var err error
	func() {
		defer p.recover(&err)
		p.ParseModule()
		p.expect(token.EOF)
	}()
	if err != nil {
		p.errs = append(p.errs, err)
	}
	m := p.partial
	if m == nil {
		m = &ast.Module{}
	}
	if m.Defs == nil {
		m.Defs = &ast.DefList{Base: incr.Base{Pos: incr.Span{Start: len(text), End: len(text)}}}
	}
	if m.Defs.Pos.End < m.Defs.Pos.Start {
		m.Defs.Pos.End = len(text)
	}
	m.Pos = incr.Span{End: len(text)}
	return m, p.errs
}

// Parser is a recursive descent parser for tdl.
type Parser struct {
	src        *TokenSource
	recovering bool
	errs       []error
	partial    *ast.Module
}

// NewFromSource initializes and returns a Parser that reads tokens from src.
func NewFromSource(src *TokenSource) *Parser {
	return &Parser{
		src: src,
	}
}

// New initializes and returns a new Parser that reads tokens from scanner.
func New(scanner *token.Scanner) *Parser {
	return NewFromSource(NewTokenSource(scanner))
}

// bailout carries a parse error up to the entry point.
type bailout struct {
	err error
}

func (p *Parser) recover(err *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*err = b.err
	}
}

func (p *Parser) errorf(loc *token.Location, format string, v ...interface{}) {
	panic(bailout{&token.LocationError{
		Err:    fmt.Errorf(format, v...),
		Source: loc,
	}})
}

func (p *Parser) unexpected(tok *token.Token, want string) {
	if tok.Type == token.ERROR {
		p.errorf(tok.Source, "%s", tok.Text)
	}
	p.errorf(tok.Source, "expected %s, found %s", want, describe(tok))
}

func describe(tok *token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.INT, token.FLOAT, token.STRING:
		return fmt.Sprintf("%s %s", tok.Type, tok.Text)
	}
	return strconv.Quote(tok.Type.String())
}

func (p *Parser) PeekType() token.Type {
	return p.src.Peek().Type
}

func (p *Parser) at(typ token.Type) bool {
	return p.PeekType() == typ
}

func (p *Parser) accept(typ token.Type) *token.Token {
	if p.src.AcceptType(typ) {
		return p.src.Token
	}
	return nil
}

func (p *Parser) expect(typ token.Type) *token.Token {
	if tok := p.accept(typ); tok != nil {
		return tok
	}
	p.unexpected(p.src.Peek(), strconv.Quote(typ.String()))
	return nil
}

func span(start *token.Token, end int) incr.Span {
	return incr.Span{Start: start.Source.Pos, End: end}
}

// ParseModule parses `module Name { definitions }`.
func (p *Parser) ParseModule() *ast.Module {
	p.expect(token.MODULE)
	m := &ast.Module{}
	p.partial = m
	m.Name = p.ParseIdent()
	open := p.expect(token.BRACE_L)
	m.Defs = &ast.DefList{}
	m.Defs.Pos.Start = open.Source.Pos
	for !p.at(token.BRACE_R) && !p.at(token.EOF) {
		def, ok := p.parseDefRecovering()
		if ok {
			m.Defs.Defs = append(m.Defs.Defs, def)
		}
	}
	m.Defs.Pos.End = p.expect(token.BRACE_R).End()
	return m
}

func (p *Parser) parseDefRecovering() (def ast.Def, ok bool) {
	if !p.recovering {
		return p.ParseDef(), true
	}
	var err error
	func() {
		defer p.recover(&err)
		def = p.ParseDef()
	}()
	if err == nil {
		return def, true
	}
	p.errs = append(p.errs, err)
	p.sync()
	return nil, false
}

// sync skips to the next token that can only start a definition, or to the
// brace closing the module.
func (p *Parser) sync() {
	depth := 0
	for {
		switch p.PeekType() {
		case token.EOF, token.IMPORT, token.CONST, token.FUNCTION, token.ALTSTEP, token.TESTCASE:
			return
		case token.BRACE_L:
			depth++
		case token.BRACE_R:
			if depth == 0 {
				return
			}
			depth--
		}
		p.src.Scan()
	}
}

// ParseDef parses one module level definition.
func (p *Parser) ParseDef() ast.Def {
	switch p.PeekType() {
	case token.IMPORT:
		return p.parseImport()
	case token.CONST:
		return p.parseConst()
	case token.FUNCTION, token.ALTSTEP, token.TESTCASE:
		return p.parseFunction()
	}
	p.unexpected(p.src.Peek(), "definition")
	return nil
}

func (p *Parser) parseImport() *ast.Import {
	kw := p.expect(token.IMPORT)
	p.expect(token.FROM)
	d := &ast.Import{Module: p.ParseIdent()}
	d.All = p.accept(token.ALL) != nil
	semi := p.expect(token.SEMI)
	d.Pos = span(kw, semi.End())
	return d
}

func (p *Parser) parseConst() *ast.Const {
	kw := p.expect(token.CONST)
	d := &ast.Const{Type: p.ParseType(), Name: p.ParseIdent()}
	p.expect(token.ASSIGN)
	d.Value = p.ParseExpr()
	semi := p.expect(token.SEMI)
	d.Pos = span(kw, semi.End())
	return d
}

func (p *Parser) parseFunction() *ast.Function {
	kw := p.src.Peek()
	p.src.Scan()
	d := &ast.Function{}
	switch kw.Type {
	case token.ALTSTEP:
		d.Kind = ast.KindAltstep
	case token.TESTCASE:
		d.Kind = ast.KindTestcase
	}
	d.Name = p.ParseIdent()
	open := p.expect(token.PAREN_L)
	d.Params = &ast.ParamList{Params: p.parseParamRun(token.PAREN_R)}
	d.Params.Pos = span(open, p.expect(token.PAREN_R).End())
	if p.accept(token.RETURN) != nil {
		d.Return = p.ParseType()
	}
	d.Body = p.ParseBlock()
	end := d.Body.Pos.End
	if semi := p.accept(token.SEMI); semi != nil {
		end = semi.End()
	}
	d.Pos = span(kw, end)
	return d
}

// parseParamRun parses comma separated parameters up to, but excluding, a
// closing token.
func (p *Parser) parseParamRun(closing token.Type) []*ast.Param {
	var params []*ast.Param
	if p.at(closing) {
		return nil
	}
	for {
		params = append(params, p.ParseParam())
		if p.accept(token.COMMA) == nil {
			break
		}
	}
	if !p.at(closing) {
		p.unexpected(p.src.Peek(), `"," or "`+closing.String()+`"`)
	}
	return params
}

// ParseParam parses `[in|out|inout] [@lazy] type name`.
func (p *Parser) ParseParam() *ast.Param {
	first := p.src.Peek()
	param := &ast.Param{}
	switch {
	case p.accept(token.IN) != nil:
		param.Dir = ast.DirIn
	case p.accept(token.OUT) != nil:
		param.Dir = ast.DirOut
	case p.accept(token.INOUT) != nil:
		param.Dir = ast.DirInout
	}
	param.Lazy = p.accept(token.LAZY) != nil
	param.Type = p.ParseType()
	param.Name = p.ParseIdent()
	param.Pos = span(first, param.Name.Pos.End)
	return param
}

// ParseIdent parses a declaring identifier.
func (p *Parser) ParseIdent() *ast.Ident {
	tok := p.src.Peek()
	if tok.Type != token.IDENT {
		p.unexpected(tok, "identifier")
	}
	p.src.Scan()
	return &ast.Ident{Base: incr.Base{Pos: span(tok, tok.End())}, Name: tok.Text}
}

// ParseType parses a type name.
func (p *Parser) ParseType() *ast.TypeRef {
	tok := p.src.Peek()
	if tok.Type != token.TYPENAME {
		p.unexpected(tok, "type name")
	}
	p.src.Scan()
	return &ast.TypeRef{Base: incr.Base{Pos: span(tok, tok.End())}, Name: tok.Text}
}

// ParseBlock parses a braced run of statements.
func (p *Parser) ParseBlock() *ast.Block {
	open := p.expect(token.BRACE_L)
	b := &ast.Block{}
	for !p.at(token.BRACE_R) {
		if p.at(token.EOF) {
			p.errorf(open.Source, "unmatched %q", open.Text)
		}
		b.Stmts = append(b.Stmts, p.ParseStmt())
	}
	b.Pos = span(open, p.expect(token.BRACE_R).End())
	return b
}

// ParseStmt parses one statement.
func (p *Parser) ParseStmt() ast.Stmt {
	first := p.src.Peek()
	switch first.Type {
	case token.VAR:
		p.src.Scan()
		s := &ast.VarStmt{Type: p.ParseType(), Name: p.ParseIdent()}
		if p.accept(token.ASSIGN) != nil {
			s.Init = p.ParseExpr()
		}
		s.Pos = span(first, p.expect(token.SEMI).End())
		return s
	case token.IF:
		return p.parseIf()
	case token.RETURN:
		p.src.Scan()
		s := &ast.ReturnStmt{}
		if !p.at(token.SEMI) {
			s.Value = p.ParseExpr()
		}
		s.Pos = span(first, p.expect(token.SEMI).End())
		return s
	case token.IDENT:
		if p.src.PeekN(1).Type == token.ASSIGN {
			s := &ast.AssignStmt{Target: p.ParseIdent()}
			p.expect(token.ASSIGN)
			s.Value = p.ParseExpr()
			s.Pos = span(first, p.expect(token.SEMI).End())
			return s
		}
	case token.BRACE_R, token.EOF:
		p.unexpected(first, "statement")
	}
	s := &ast.ExprStmt{X: p.ParseExpr()}
	s.Pos = span(first, p.expect(token.SEMI).End())
	return s
}

func (p *Parser) parseIf() *ast.IfStmt {
	kw := p.expect(token.IF)
	p.expect(token.PAREN_L)
	s := &ast.IfStmt{Cond: p.ParseExpr()}
	p.expect(token.PAREN_R)
	s.Then = p.ParseBlock()
	end := s.Then.Pos.End
	if p.accept(token.ELSE) != nil {
		if p.at(token.IF) {
			elif := p.parseIf()
			s.Else, end = elif, elif.Pos.End
		} else {
			blk := p.ParseBlock()
			s.Else, end = blk, blk.Pos.End
		}
	}
	s.Pos = span(kw, end)
	return s
}

var precedence = map[token.Type]int{
	token.OR:    1,
	token.AND:   2,
	token.EQ:    3,
	token.NEQ:   3,
	token.LT:    3,
	token.LE:    3,
	token.GT:    3,
	token.GE:    3,
	token.PLUS:  4,
	token.MINUS: 4,
	token.STAR:  5,
	token.SLASH: 5,
	token.MOD:   5,
}

// ParseExpr parses an expression.
func (p *Parser) ParseExpr() ast.Expr {
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	x := p.parseUnary()
	for {
		op := p.src.Peek()
		prec, ok := precedence[op.Type]
		if !ok || prec < minPrec {
			return x
		}
		p.src.Scan()
		y := p.parseBinary(prec + 1)
		x = &ast.Binary{
			Base: incr.Base{Pos: incr.Span{Start: x.Span().Start, End: y.Span().End}},
			Op:   op.Type,
			X:    x,
			Y:    y,
		}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	op := p.src.Peek()
	if op.Type == token.NOT || op.Type == token.MINUS {
		p.src.Scan()
		x := p.parseUnary()
		return &ast.Unary{Base: incr.Base{Pos: span(op, x.Span().End)}, Op: op.Type, X: x}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.src.Peek()
	at := incr.Base{Pos: span(tok, tok.End())}
	switch tok.Type {
	case token.INT:
		p.src.Scan()
		x, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			p.errorf(tok.Source, "integer literal overflows: %v", tok.Text)
		}
		return &ast.IntLit{Base: at, Value: x}
	case token.FLOAT:
		p.src.Scan()
		x, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			p.errorf(tok.Source, "invalid floating point literal: %v", tok.Text)
		}
		return &ast.FloatLit{Base: at, Value: x}
	case token.STRING:
		p.src.Scan()
		s, err := strconv.Unquote(tok.Text)
		if err != nil {
			p.errorf(tok.Source, "invalid string literal: %v", tok.Text)
		}
		return &ast.StringLit{Base: at, Value: s}
	case token.TRUE, token.FALSE:
		p.src.Scan()
		return &ast.BoolLit{Base: at, Value: tok.Type == token.TRUE}
	case token.IDENT:
		if p.src.PeekN(1).Type == token.PAREN_L {
			return p.parseCall()
		}
		p.src.Scan()
		return &ast.Name{Base: at, Name: tok.Text}
	case token.PAREN_L:
		p.src.Scan()
		x := p.ParseExpr()
		rparen := p.src.Peek()
		if rparen.Type != token.PAREN_R {
			p.errorf(tok.Source, "unmatched %q", tok.Text)
		}
		p.src.Scan()
		return &ast.Paren{Base: incr.Base{Pos: span(tok, rparen.End())}, X: x}
	}
	p.unexpected(tok, "expression")
	return nil
}

func (p *Parser) parseCall() *ast.Call {
	c := &ast.Call{Func: p.ParseIdent()}
	open := p.expect(token.PAREN_L)
	if !p.at(token.PAREN_R) {
		for {
			c.Args = append(c.Args, p.ParseExpr())
			if p.accept(token.COMMA) == nil {
				break
			}
		}
	}
	rparen := p.src.Peek()
	if rparen.Type != token.PAREN_R {
		if rparen.Type == token.EOF {
			p.errorf(open.Source, "unmatched %q", open.Text)
		}
		p.unexpected(rparen, `"," or ")"`)
	}
	p.src.Scan()
	c.Pos = incr.Span{Start: c.Func.Pos.Start, End: rparen.End()}
	return c
}

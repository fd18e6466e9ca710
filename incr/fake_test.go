// Copyright © 2024 The ELPS authors

package incr

import (
	"fmt"
	"unicode"
)

// A toy language used to drive the engine:
//
//	doc  = { pair }
//	pair = word "(" { word } ")"

type leaf struct {
	Base
	text string
}

func (l *leaf) Children() []Node { return nil }

type words struct {
	Base
	els []Node
}

func (w *words) Children() []Node    { return w.els }
func (w *words) Elements() []Node    { return w.els }
func (w *words) ElementEntry() Entry { return "words" }
func (w *words) Interior() Span      { return Span{Start: w.Pos.Start + 1, End: w.Pos.End - 1} }
func (w *words) Splice(lo, hi int, nodes []Node) {
	w.els = splice(w.els, lo, hi, nodes)
}

type pair struct {
	Base
	name *leaf
	args *words
}

func (p *pair) Children() []Node { return []Node{p.name, p.args} }
func (p *pair) Slots() []Slot {
	return []Slot{
		{Node: p.name, Name: true, Entry: "ident", Set: func(n Node) { p.name = n.(*leaf) }},
		{Node: p.args},
	}
}

type list struct {
	Base
	els []Node
}

func (l *list) Children() []Node    { return l.els }
func (l *list) Elements() []Node    { return l.els }
func (l *list) ElementEntry() Entry { return "pairs" }
func (l *list) Interior() Span      { return l.Pos }
func (l *list) Splice(lo, hi int, nodes []Node) {
	l.els = splice(l.els, lo, hi, nodes)
}

type doc struct {
	Base
	items *list
}

func (d *doc) Children() []Node { return []Node{d.items} }
func (d *doc) Slots() []Slot    { return []Slot{{Node: d.items}} }

func splice(els []Node, lo, hi int, nodes []Node) []Node {
	out := make([]Node, 0, len(els)-(hi-lo)+len(nodes))
	out = append(out, els[:lo]...)
	out = append(out, nodes...)
	return append(out, els[hi:]...)
}

type fakeGrammar struct {
	calls []Entry
}

func (g *fakeGrammar) Parse(entry Entry, text string, base int) ([]Node, error) {
	g.calls = append(g.calls, entry)
	p := &fakeParser{src: text, base: base}
	var out []Node
	switch entry {
	case "ident":
		id, err := p.word()
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	case "words":
		for p.skip(); !p.eof(); p.skip() {
			id, err := p.word()
			if err != nil {
				return nil, err
			}
			out = append(out, id)
		}
	case "pairs":
		for p.skip(); !p.eof(); p.skip() {
			pr, err := p.pair()
			if err != nil {
				return nil, err
			}
			out = append(out, pr)
		}
	default:
		return nil, fmt.Errorf("unknown entry %q", entry)
	}
	p.skip()
	if !p.eof() {
		return nil, fmt.Errorf("unexpected %q at %d", p.src[p.pos:], p.base+p.pos)
	}
	return out, nil
}

func parseDoc(text string) *doc {
	nodes, err := (&fakeGrammar{}).Parse("pairs", text, 0)
	if err != nil {
		panic(err)
	}
	whole := Span{End: len(text)}
	return &doc{Base: Base{Pos: whole}, items: &list{Base: Base{Pos: whole}, els: nodes}}
}

type fakeParser struct {
	src  string
	pos  int
	base int
}

func (p *fakeParser) eof() bool { return p.pos >= len(p.src) }

func (p *fakeParser) skip() {
	for !p.eof() && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *fakeParser) word() (*leaf, error) {
	p.skip()
	start := p.pos
	for !p.eof() && (unicode.IsLetter(rune(p.src[p.pos])) || unicode.IsDigit(rune(p.src[p.pos]))) {
		p.pos++
	}
	if start == p.pos {
		return nil, fmt.Errorf("expected word at %d", p.base+p.pos)
	}
	return &leaf{Base: Base{Pos: Span{Start: p.base + start, End: p.base + p.pos}}, text: p.src[start:p.pos]}, nil
}

func (p *fakeParser) pair() (*pair, error) {
	name, err := p.word()
	if err != nil {
		return nil, err
	}
	p.skip()
	if p.eof() || p.src[p.pos] != '(' {
		return nil, fmt.Errorf("expected ( at %d", p.base+p.pos)
	}
	args := &words{}
	args.Pos.Start = p.base + p.pos
	p.pos++
	for {
		p.skip()
		if p.eof() {
			return nil, fmt.Errorf("unterminated argument list at %d", p.base+p.pos)
		}
		if p.src[p.pos] == ')' {
			p.pos++
			break
		}
		w, err := p.word()
		if err != nil {
			return nil, err
		}
		args.els = append(args.els, w)
	}
	args.Pos.End = p.base + p.pos
	return &pair{Base: Base{Pos: Span{Start: name.Pos.Start, End: args.Pos.End}}, name: name, args: args}, nil
}

type recordingBridges struct {
	removed []Node
}

func (b *recordingBridges) Remove(n Node) {
	if _, ok := n.(*pair); ok {
		b.removed = append(b.removed, n)
	}
}

func spans(n Node) []Span {
	var out []Span
	Walk(n, func(m Node) bool {
		out = append(out, m.Span())
		return true
	})
	return out
}

func applyText(text string, off, removed int, ins string) (string, Edit) {
	return text[:off] + ins + text[off+removed:], Edit{Offset: off, Removed: removed, Inserted: len(ins)}
}

// Package invocation recognizes whichfailed call sites and parses their
// arguments into an Invocation.
package invocation

import (
	"go/token"

	"whichfailed/internal/diag"
	"whichfailed/internal/lex"
)

// Invocation is one parsed call site.
type Invocation struct {
	Binding     lex.Tree   // identifier receiving the failing condition's text
	Conjunction []lex.Tree // raw trees between `if` and the block, unparsed
	Body        lex.Tree   // brace group, never inspected

	// Pos and End span the whole call site, macro name to closing
	// parenthesis (or explicit semicolon).
	Pos token.Pos
	End token.Pos
}

// BindingName is the binding identifier's text.
func (inv *Invocation) BindingName() string {
	return inv.Binding.Lit
}

type state int

const (
	stateBinding state = iota
	stateComma
	stateIf
	stateConjunction
	stateBlock
	stateEnd
	stateDone
)

type parser struct {
	src *lex.Source
	cur *lex.Cursor
	inv *Invocation
}

// Parse parses the arguments of site:
//
//	<binding> , if <conjunction> { <body> }
//
// The conjunction runs until the next tree is a brace group. Parentheses and
// brackets are single trees, so braces nested inside them never end it.
func Parse(src *lex.Source, site Site) (*Invocation, error) {
	p := &parser{
		src: src,
		cur: lex.NewCursor(site.Args.Children, site.Args.End-1),
		inv: &Invocation{Pos: site.Pos, End: site.End},
	}
	for st := stateBinding; st != stateDone; {
		next, err := p.step(st)
		if err != nil {
			return nil, err
		}
		st = next
	}
	return p.inv, nil
}

func (p *parser) step(st state) (state, error) {
	switch st {
	case stateBinding:
		t, ok := p.cur.Next()
		if !ok || t.Kind != lex.Ident {
			return st, p.unexpected(t, ok, diag.KindMissingBinding, "binding identifier")
		}
		p.inv.Binding = t
		return stateComma, nil

	case stateComma:
		t, ok := p.cur.Next()
		if !ok || !t.IsPunct(token.COMMA) {
			return st, p.unexpected(t, ok, diag.KindMissingComma, `","`)
		}
		return stateIf, nil

	case stateIf:
		t, ok := p.cur.Next()
		if !ok || !t.IsKeyword(token.IF) {
			return st, p.unexpected(t, ok, diag.KindMissingIf, `"if"`)
		}
		return stateConjunction, nil

	case stateConjunction:
		for {
			t, ok := p.cur.Peek()
			if !ok || t.IsGroup(lex.Brace) {
				return stateBlock, nil
			}
			p.cur.Next()
			p.inv.Conjunction = append(p.inv.Conjunction, t)
		}

	case stateBlock:
		t, ok := p.cur.Next()
		if !ok || !t.IsGroup(lex.Brace) {
			return st, p.unexpected(t, ok, diag.KindMalformedBlock, "block")
		}
		p.inv.Body = t
		return stateEnd, nil

	case stateEnd:
		if t, ok := p.cur.Peek(); ok {
			return st, diag.New(p.src.Position(t.Pos), diag.KindTrailingTokens,
				"unexpected %s after block", t.Describe())
		}
		return stateDone, nil
	}
	return stateDone, nil
}

func (p *parser) unexpected(t lex.Tree, ok bool, kind diag.Kind, want string) error {
	if !ok {
		return diag.New(p.src.Position(p.cur.Pos()), kind, "expected %s, found end of invocation", want)
	}
	return diag.New(p.src.Position(t.Pos), kind, "expected %s, found %s", want, t.Describe())
}

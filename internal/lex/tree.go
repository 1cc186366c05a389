// Package lex turns template source into token trees.
//
// A token tree is either a single token (identifier, keyword, literal or
// punctuation) or a delimited group holding its own trees. Groups are atomic
// to anyone walking a level of trees, which is what lets the splitter ignore
// operators nested inside parentheses or brackets.
package lex

import (
	"fmt"
	"go/token"
)

// Kind is the variant tag of a Tree.
type Kind int

const (
	Ident Kind = iota
	Keyword
	Literal
	Punct
	Group
)

func (k Kind) String() string {
	switch k {
	case Ident:
		return "ident"
	case Keyword:
		return "keyword"
	case Literal:
		return "literal"
	case Punct:
		return "punct"
	case Group:
		return "group"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Delim identifies the delimiters of a Group.
type Delim int

const (
	NoDelim Delim = iota
	Paren
	Bracket
	Brace
)

func (d Delim) Open() string {
	switch d {
	case Paren:
		return "("
	case Bracket:
		return "["
	case Brace:
		return "{"
	}
	return ""
}

func (d Delim) Close() string {
	switch d {
	case Paren:
		return ")"
	case Bracket:
		return "]"
	case Brace:
		return "}"
	}
	return ""
}

func openDelim(tok token.Token) Delim {
	switch tok {
	case token.LPAREN:
		return Paren
	case token.LBRACK:
		return Bracket
	case token.LBRACE:
		return Brace
	}
	return NoDelim
}

func closeDelim(tok token.Token) Delim {
	switch tok {
	case token.RPAREN:
		return Paren
	case token.RBRACK:
		return Bracket
	case token.RBRACE:
		return Brace
	}
	return NoDelim
}

// Tree is one token tree.
type Tree struct {
	Kind Kind
	Tok  token.Token // scanner token; the opening token for groups
	Lit  string      // token text; empty for groups
	Pos  token.Pos
	End  token.Pos // one past the last character, closing delimiter included

	Delim    Delim
	Children []Tree
}

// IsIdent reports whether t is the identifier name.
func (t Tree) IsIdent(name string) bool {
	return t.Kind == Ident && t.Lit == name
}

// IsKeyword reports whether t is the keyword tok.
func (t Tree) IsKeyword(tok token.Token) bool {
	return t.Kind == Keyword && t.Tok == tok
}

// IsPunct reports whether t is the operator or punctuation tok.
func (t Tree) IsPunct(tok token.Token) bool {
	return t.Kind == Punct && t.Tok == tok
}

// IsGroup reports whether t is a group delimited by d.
func (t Tree) IsGroup(d Delim) bool {
	return t.Kind == Group && t.Delim == d
}

// Describe renders t for diagnostics.
func (t Tree) Describe() string {
	switch t.Kind {
	case Ident:
		return fmt.Sprintf("identifier %s", t.Lit)
	case Keyword:
		return fmt.Sprintf("keyword %s", t.Lit)
	case Literal:
		return fmt.Sprintf("literal %s", t.Lit)
	case Punct:
		return fmt.Sprintf("%q", t.Lit)
	case Group:
		return fmt.Sprintf("%q group", t.Delim.Open()+"..."+t.Delim.Close())
	}
	return t.Kind.String()
}

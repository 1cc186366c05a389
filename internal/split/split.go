// Package split breaks a conjunction into its top-level operands.
package split

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"

	"whichfailed/internal/diag"
	"whichfailed/internal/lex"
)

// Condition is one operand of a top-level conjunction.
type Condition struct {
	Expr ast.Expr
	Text string    // canonical rendering of Expr, derived from the operand's own tokens
	Pos  token.Pos // first token of the operand
}

// Split scans trees left to right and cuts at every top-level &&. Groups are
// single trees, so an && inside parentheses or brackets stays with its
// operand. A single & is an ordinary token.
//
// An empty input yields no conditions and no error; rejecting it is up to
// the generator. An empty operand next to an && and a top-level || are
// errors rather than guesses.
func Split(src *lex.Source, trees []lex.Tree) ([]Condition, error) {
	var (
		conds   []Condition
		buf     []lex.Tree
		lastAnd *lex.Tree
	)
	for i := range trees {
		t := trees[i]
		switch {
		case t.IsPunct(token.LAND):
			if len(buf) == 0 {
				return nil, diag.New(src.Position(t.Pos), diag.KindStrayAnd, "%q has no left operand", "&&")
			}
			c, err := parse(src, buf)
			if err != nil {
				return nil, err
			}
			conds = append(conds, c)
			buf = nil
			lastAnd = &trees[i]
		case t.IsPunct(token.LOR):
			return nil, diag.New(src.Position(t.Pos), diag.KindTopLevelOr,
				"top-level %q is not supported, parenthesize the disjunction", "||")
		default:
			buf = append(buf, t)
		}
	}

	if len(buf) > 0 {
		c, err := parse(src, buf)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	} else if lastAnd != nil {
		return nil, diag.New(src.Position(lastAnd.Pos), diag.KindStrayAnd, "%q has no right operand", "&&")
	}
	return conds, nil
}

func parse(src *lex.Source, buf []lex.Tree) (Condition, error) {
	pos, end := buf[0].Pos, buf[len(buf)-1].End
	text := src.Text(pos, end)

	fset := token.NewFileSet()
	expr, err := parser.ParseExprFrom(fset, "", text, 0)
	if err != nil {
		return Condition{}, diag.New(src.Position(pos), diag.KindBadCondition,
			"cannot parse condition %q: %v", text, err)
	}

	rendered, err := Render(fset, expr)
	if err != nil {
		return Condition{}, diag.New(src.Position(pos), diag.KindBadCondition,
			"cannot render condition %q: %v", text, err)
	}
	return Condition{Expr: expr, Text: rendered, Pos: pos}, nil
}

// Render prints expr the way gofmt would. The output depends only on the
// expression, so identical input always yields identical text.
func Render(fset *token.FileSet, expr ast.Expr) (string, error) {
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, expr); err != nil {
		return "", err
	}
	return buf.String(), nil
}

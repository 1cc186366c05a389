// Package gen builds and renders the branch chain that replaces an
// invocation.
package gen

import (
	"go/token"

	"whichfailed/internal/diag"
	"whichfailed/internal/split"
)

// Branch is one link of the cascade: if Cond is false, Binding is bound to
// Text and Body runs.
type Branch struct {
	Cond string // condition source, emitted negated
	Text string // value bound to the binding name
	Body string // the guarded block, verbatim
}

// Chain is an if / else-if cascade with no trailing else.
type Chain struct {
	Binding  string
	Branches []Branch
}

// Generate builds the chain for conds in order. Every branch carries the same
// body. Because each branch is only reached when the previous conditions
// held, conditions are evaluated exactly as the replaced && would evaluate
// them.
func Generate(binding string, conds []split.Condition, body string) (*Chain, error) {
	if len(conds) == 0 {
		return nil, diag.New(token.Position{}, diag.KindNoConditions, "at least one condition is required")
	}
	c := &Chain{Binding: binding, Branches: make([]Branch, 0, len(conds))}
	for _, cond := range conds {
		c.Branches = append(c.Branches, Branch{Cond: cond.Text, Text: cond.Text, Body: body})
	}
	return c, nil
}

// Package sim evaluates a branch chain against concrete variable bindings
// without compiling it, reporting which condition would be bound.
package sim

import (
	"fmt"
	"go/token"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"whichfailed/internal/gen"
	"whichfailed/internal/lex"
	"whichfailed/internal/logging"
	"whichfailed/internal/split"
)

// Outcome is the result of simulating a chain.
type Outcome struct {
	Failed    bool   // false when every condition held and nothing ran
	Index     int    // branch taken, -1 when none
	Text      string // value the binding would receive
	Evaluated int    // conditions evaluated, in order, before stopping
}

// Chain builds the chain for a bare conjunction such as "a && b > 1".
func Chain(conjunction string) (*gen.Chain, error) {
	src, trees, err := lex.Scan(token.NewFileSet(), "conjunction", []byte(conjunction))
	if err != nil {
		return nil, err
	}
	conds, err := split.Split(src, trees)
	if err != nil {
		return nil, err
	}
	return gen.Generate("failed", conds, "{}")
}

// Run walks c the way the generated code would: conditions are evaluated
// left to right and the walk stops at the first false one. Conditions are
// evaluated with expr, so only the subset of Go expressions expr shares is
// supported.
func Run(c *gen.Chain, env map[string]any) (*Outcome, error) {
	out := &Outcome{Index: -1}
	for i, b := range c.Branches {
		program, err := expr.Compile(b.Cond, expr.Env(env), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile condition %q: %w", b.Cond, err)
		}
		v, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("evaluate condition %q: %w", b.Cond, err)
		}
		out.Evaluated++
		held, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("condition %q evaluated to %T, want bool", b.Cond, v)
		}
		logging.SimDebug("condition %d %q = %t", i, b.Cond, held)
		if !held {
			out.Failed = true
			out.Index = i
			out.Text = b.Text
			return out, nil
		}
	}
	return out, nil
}

// ParseBindings parses name=value pairs. Values are read as bool, int,
// float or quoted string when they parse as one, and as a bare string
// otherwise.
func ParseBindings(pairs []string) (map[string]any, error) {
	env := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || !token.IsIdentifier(name) {
			return nil, fmt.Errorf("binding %q is not of the form name=value", pair)
		}
		env[name] = parseValue(strings.TrimSpace(raw))
	}
	return env, nil
}

func parseValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
		return b
	}
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if s, err := strconv.Unquote(raw); err == nil {
		return s
	}
	return raw
}

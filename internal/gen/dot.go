package gen

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

// DOT renders the chain as a Graphviz digraph: one diamond per condition,
// its false edge into the body it guards, its true edge on to the next
// condition, and the last true edge into a skip node.
func DOT(c *Chain, name string) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(name); err != nil {
		return "", fmt.Errorf("set graph name: %w", err)
	}
	if err := g.SetDir(true); err != nil {
		return "", fmt.Errorf("set graph direction: %w", err)
	}

	if err := g.AddNode(name, "skip", map[string]string{
		"shape": "plaintext",
		"label": strconv.Quote("all true: skip"),
	}); err != nil {
		return "", fmt.Errorf("add skip node: %w", err)
	}

	for i, b := range c.Branches {
		cond := fmt.Sprintf("cond%d", i)
		body := fmt.Sprintf("body%d", i)
		next := "skip"
		if i+1 < len(c.Branches) {
			next = fmt.Sprintf("cond%d", i+1)
		}

		if err := g.AddNode(name, cond, map[string]string{
			"shape": "diamond",
			"label": strconv.Quote(b.Cond),
		}); err != nil {
			return "", fmt.Errorf("add node %s: %w", cond, err)
		}
		if err := g.AddNode(name, body, map[string]string{
			"shape": "box",
			"label": strconv.Quote(c.Binding + " = " + strconv.Quote(b.Text)),
		}); err != nil {
			return "", fmt.Errorf("add node %s: %w", body, err)
		}
		if err := g.AddEdge(cond, body, true, map[string]string{"label": strconv.Quote("false")}); err != nil {
			return "", fmt.Errorf("add edge %s->%s: %w", cond, body, err)
		}
		if err := g.AddEdge(cond, next, true, map[string]string{"label": strconv.Quote("true")}); err != nil {
			return "", fmt.Errorf("add edge %s->%s: %w", cond, next, err)
		}
	}
	return g.String(), nil
}

package lex

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes one line per tree, groups indented under their opening
// delimiter.
func Dump(w io.Writer, src *Source, trees []Tree) error {
	return dump(w, src, trees, 0)
}

func dump(w io.Writer, src *Source, trees []Tree, depth int) error {
	indent := strings.Repeat("  ", depth)
	for _, t := range trees {
		pos := src.Position(t.Pos)
		text := t.Lit
		if t.Kind == Group {
			text = t.Delim.Open() + t.Delim.Close()
		}
		if _, err := fmt.Fprintf(w, "%s%-8s %-20q (%d:%d)\n", indent, t.Kind, text, pos.Line, pos.Column); err != nil {
			return err
		}
		if t.Kind == Group {
			if err := dump(w, src, t.Children, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

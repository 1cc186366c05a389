package expand

import (
	"go/ast"
	"go/parser"
	"go/token"

	"whichfailed/internal/diag"
	"whichfailed/internal/lex"
)

// checkLabels rejects a body that declares a label of its own function, since
// every branch of the chain repeats the body. Labels inside function literals
// are scoped to the literal and are fine. A body that does not parse is left
// for the format pass to report.
func checkLabels(src *lex.Source, block lex.Tree, body string) error {
	file, err := parser.ParseFile(token.NewFileSet(), "", "package p\nfunc _() "+body+"\n", parser.SkipObjectResolution)
	if err != nil {
		return nil
	}
	var label string
	ast.Inspect(file.Decls[0].(*ast.FuncDecl).Body, func(n ast.Node) bool {
		if label != "" {
			return false
		}
		switch n := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.LabeledStmt:
			label = n.Label.Name
			return false
		}
		return true
	})
	if label == "" {
		return nil
	}
	pos := block.Pos
	if p, ok := findLabel(block.Children, label); ok {
		pos = p
	}
	return diag.New(src.Position(pos), diag.KindLabeledBody,
		"label %s would be declared once per condition; move the labeled statement out of the body", label)
}

// findLabel returns the position of the first `name :` pair among trees.
func findLabel(trees []lex.Tree, name string) (token.Pos, bool) {
	for i, t := range trees {
		if t.IsIdent(name) && i+1 < len(trees) && trees[i+1].IsPunct(token.COLON) {
			return t.Pos, true
		}
		if t.Kind == lex.Group {
			if p, ok := findLabel(t.Children, name); ok {
				return p, true
			}
		}
	}
	return token.NoPos, false
}

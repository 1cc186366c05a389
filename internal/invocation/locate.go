package invocation

import (
	"go/token"

	"whichfailed/internal/lex"
)

// DefaultMacro is the call-site name used when none is configured.
const DefaultMacro = "whichfailed"

// Site is an unparsed call site: `<macro> ! ( ... )`, optionally followed by
// an explicit semicolon.
type Site struct {
	Pos  token.Pos
	End  token.Pos
	Args lex.Tree // the parenthesized group
}

// Locate returns the call sites of macro in source order. It descends into
// every group except the arguments of a site it found; sites nested in a
// body are found by locating again within that body.
func Locate(trees []lex.Tree, macro string) []Site {
	var sites []Site
	locate(trees, macro, &sites)
	return sites
}

func locate(trees []lex.Tree, macro string, sites *[]Site) {
	for i := 0; i < len(trees); i++ {
		t := trees[i]
		if t.IsIdent(macro) && i+2 < len(trees) &&
			trees[i+1].IsPunct(token.NOT) && trees[i+2].IsGroup(lex.Paren) {
			site := Site{Pos: t.Pos, End: trees[i+2].End, Args: trees[i+2]}
			i += 2
			if i+1 < len(trees) && trees[i+1].IsPunct(token.SEMICOLON) {
				site.End = trees[i+1].End
				i++
			}
			*sites = append(*sites, site)
			continue
		}
		if t.Kind == lex.Group {
			locate(t.Children, macro, sites)
		}
	}
}

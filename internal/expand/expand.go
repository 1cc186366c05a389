// Package expand rewrites whichfailed templates into Go source, replacing
// every call site with its branch chain.
package expand

import (
	"fmt"
	"go/format"
	"go/token"
	"path/filepath"
	"sort"
	"strings"

	"whichfailed/internal/diag"
	"whichfailed/internal/gen"
	"whichfailed/internal/invocation"
	"whichfailed/internal/lex"
	"whichfailed/internal/logging"
	"whichfailed/internal/split"
)

// Options controls a single expansion.
type Options struct {
	Macro  string // call-site name; invocation.DefaultMacro when empty
	Header bool   // prepend the generated-code header
	Format bool   // run the output through gofmt
}

// DefaultOptions returns the options used by `whichfailed expand`.
func DefaultOptions() Options {
	return Options{Macro: invocation.DefaultMacro, Header: true, Format: true}
}

func (o Options) macro() string {
	if o.Macro == "" {
		return invocation.DefaultMacro
	}
	return o.Macro
}

// Expansion records one rewritten call site.
type Expansion struct {
	Pos        token.Position
	Binding    string
	Conditions []split.Condition
	Chain      *gen.Chain
}

// Result is the expansion of one template.
type Result struct {
	Filename   string
	Output     []byte
	Expansions []Expansion // in source order
}

// Header returns the generated-code header for a template named filename.
func Header(filename string) string {
	return fmt.Sprintf("// Code generated by whichfailed from %s. DO NOT EDIT.\n\n", filepath.Base(filename))
}

// Source expands the template src. On failure the error is a diag.List
// holding every diagnostic found in the file and no output is produced.
func Source(filename string, src []byte, opts Options) (*Result, error) {
	fset := token.NewFileSet()
	s, trees, err := lex.Scan(fset, filename, src)
	if err != nil {
		return nil, err
	}

	x := &expander{src: s, macro: opts.macro()}
	body := x.rewrite(trees, s.File.Pos(0), s.File.Pos(len(src)))
	if len(x.diags) > 0 {
		x.diags.Sort()
		return nil, x.diags
	}

	out := body
	if opts.Header {
		out = Header(filename) + out
	}
	output := []byte(out)
	if opts.Format {
		formatted, err := format.Source(output)
		if err != nil {
			return nil, diag.List{diag.New(token.Position{Filename: filename, Line: 1, Column: 1}, diag.KindFormat,
				"expanded source is not valid Go: %v", err)}
		}
		output = formatted
	}

	sort.SliceStable(x.expansions, func(i, j int) bool {
		return x.expansions[i].Pos.Offset < x.expansions[j].Pos.Offset
	})
	logging.ExpandDebug("%s: %d call sites expanded", filename, len(x.expansions))
	return &Result{Filename: filename, Output: output, Expansions: x.expansions}, nil
}

type expander struct {
	src        *lex.Source
	macro      string
	diags      diag.List
	expansions []Expansion
}

// rewrite returns the source text between start and end with every call
// site among trees replaced by its chain. Bodies are rewritten the same way
// before they are emitted, so nested call sites expand from the inside out.
func (x *expander) rewrite(trees []lex.Tree, start, end token.Pos) string {
	var b strings.Builder
	at := start
	for _, site := range invocation.Locate(trees, x.macro) {
		b.WriteString(x.src.Text(at, site.Pos))
		b.WriteString(x.expand(site))
		at = site.End
	}
	b.WriteString(x.src.Text(at, end))
	return b.String()
}

// expand returns the replacement for site. On failure it records the
// diagnostic and returns the empty string; the file is discarded anyway.
func (x *expander) expand(site invocation.Site) string {
	inv, err := invocation.Parse(x.src, site)
	if err != nil {
		x.diags.Add(err)
		return ""
	}
	conds, err := split.Split(x.src, inv.Conjunction)
	if err != nil {
		x.diags.Add(err)
		return ""
	}

	body := x.rewrite(inv.Body.Children, inv.Body.Pos, inv.Body.End)
	if len(conds) > 1 {
		if err := checkLabels(x.src, inv.Body, body); err != nil {
			x.diags.Add(err)
			return ""
		}
	}
	chain, err := gen.Generate(inv.BindingName(), conds, body)
	if err != nil {
		x.diags.Add(diag.At(err, x.src.Position(site.Pos)))
		return ""
	}
	code, err := gen.Render(chain)
	if err != nil {
		x.diags.Add(fmt.Errorf("%s: %w", x.src.Position(site.Pos), err))
		return ""
	}

	x.expansions = append(x.expansions, Expansion{
		Pos:        x.src.Position(site.Pos),
		Binding:    chain.Binding,
		Conditions: conds,
		Chain:      chain,
	})
	return code
}

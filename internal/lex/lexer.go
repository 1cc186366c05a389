package lex

import (
	"bytes"
	"go/scanner"
	"go/token"
	"strings"

	"whichfailed/internal/diag"
)

// Source is a scanned template: the bytes plus the position table needed to
// map token positions back to text and to file:line:col.
type Source struct {
	Fset *token.FileSet
	File *token.File
	Src  []byte
}

// Text returns the source bytes in [pos, end).
func (s *Source) Text(pos, end token.Pos) string {
	return string(s.Src[s.File.Offset(pos):s.File.Offset(end)])
}

// Position resolves pos to a file position.
func (s *Source) Position(pos token.Pos) token.Position {
	return s.Fset.Position(pos)
}

// Scan tokenizes src with the Go scanner and nests the tokens into trees.
// Comments and automatically inserted semicolons are dropped. Scanner errors
// and unbalanced delimiters are reported as lex diagnostics.
func Scan(fset *token.FileSet, filename string, src []byte) (*Source, []Tree, error) {
	file := fset.AddFile(filename, -1, len(src))
	source := &Source{Fset: fset, File: file, Src: src}

	var diags diag.List
	var s scanner.Scanner
	s.Init(file, src, func(pos token.Position, msg string) {
		diags.Add(diag.New(pos, diag.KindLex, "%s", msg))
	}, 0)

	type frame struct {
		open     Tree
		children []Tree
	}
	stack := []frame{{}}

	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}

		if d := openDelim(tok); d != NoDelim {
			stack = append(stack, frame{open: Tree{Kind: Group, Tok: tok, Pos: pos, Delim: d}})
			continue
		}

		if d := closeDelim(tok); d != NoDelim {
			if len(stack) == 1 {
				diags.Add(diag.New(source.Position(pos), diag.KindLex, "unexpected %q", d.Close()))
				continue
			}
			top := stack[len(stack)-1]
			if top.open.Delim != d {
				diags.Add(diag.New(source.Position(pos), diag.KindLex,
					"mismatched %q, expected %q to close %q at %s",
					d.Close(), top.open.Delim.Close(), top.open.Delim.Open(), source.Position(top.open.Pos)))
				// Keep the stack as is; a stray closer should not swallow the open group.
				continue
			}
			stack = stack[:len(stack)-1]
			g := top.open
			g.Children = top.children
			g.End = pos + 1
			parent := &stack[len(stack)-1]
			parent.children = append(parent.children, g)
			continue
		}

		if lit == "" {
			lit = tok.String()
		}
		t := Tree{Tok: tok, Lit: lit, Pos: pos, End: pos + token.Pos(len(lit))}
		if tok == token.STRING && strings.HasPrefix(lit, "`") {
			t.End = rawEnd(source, pos, t.End)
		}
		switch {
		case tok == token.IDENT:
			t.Kind = Ident
		case tok.IsKeyword():
			t.Kind = Keyword
		case tok.IsLiteral():
			t.Kind = Literal
		default:
			t.Kind = Punct
		}
		parent := &stack[len(stack)-1]
		parent.children = append(parent.children, t)
	}

	for i := len(stack) - 1; i > 0; i-- {
		open := stack[i].open
		diags.Add(diag.New(source.Position(open.Pos), diag.KindLex, "unclosed %q", open.Delim.Open()))
	}

	if len(diags) > 0 {
		diags.Sort()
		return source, nil, diags
	}
	return source, stack[0].children, nil
}

// rawEnd measures a raw string in the source. The scanner drops carriage
// returns from raw string literals, so the literal can be shorter than the
// text it spans.
func rawEnd(s *Source, pos, fallback token.Pos) token.Pos {
	start := s.File.Offset(pos)
	i := bytes.IndexByte(s.Src[start+1:], '`')
	if i < 0 {
		return fallback
	}
	return pos + token.Pos(i+2)
}

// Package diff computes line diffs between a generated file on disk and its
// fresh expansion, for `expand --diff`.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType represents the type of diff line
type LineType int

const (
	LineContext LineType = iota // unchanged
	LineAdded
	LineRemoved
)

// Line is a single line of a hunk.
type Line struct {
	Content string
	Type    LineType
}

// Hunk is a group of changes with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff represents changes to a single file.
type FileDiff struct {
	OldPath string
	NewPath string
	Hunks   []Hunk
	IsNew   bool
}

// Empty reports whether the contents were identical.
func (d *FileDiff) Empty() bool {
	return len(d.Hunks) == 0
}

// Engine computes line diffs.
type Engine struct {
	dmp     *diffmatchpatch.DiffMatchPatch
	context int
}

// NewEngine creates an engine printing context lines around each change.
func NewEngine(context int) *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Engine{dmp: dmp, context: context}
}

// ComputeDiff diffs oldContent against newContent line by line.
func (e *Engine) ComputeDiff(oldPath, newPath, oldContent, newContent string) *FileDiff {
	fd := &FileDiff{OldPath: oldPath, NewPath: newPath, IsNew: oldContent == ""}

	// Reduce to one rune per line so the diff never splits a line.
	a, b, lines := e.dmp.DiffLinesToChars(oldContent, newContent)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lines)

	fd.Hunks = e.group(operations(diffs))
	return fd
}

type operation struct {
	typ     LineType
	oldLine int // 0-based, -1 for additions
	newLine int // 0-based, -1 for removals
	content string
}

func operations(diffs []diffmatchpatch.Diff) []operation {
	var ops []operation
	oldLine, newLine := 0, 0
	for _, d := range diffs {
		lines := strings.SplitAfter(d.Text, "\n")
		if lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		for _, l := range lines {
			l = strings.TrimSuffix(l, "\n")
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, operation{LineContext, oldLine, newLine, l})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, operation{LineRemoved, oldLine, -1, l})
				oldLine++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, operation{LineAdded, -1, newLine, l})
				newLine++
			}
		}
	}
	return ops
}

// group collects changed operations into hunks, merging changes whose
// context windows overlap.
func (e *Engine) group(ops []operation) []Hunk {
	var hunks []Hunk
	for i := 0; i < len(ops); {
		if ops[i].typ == LineContext {
			i++
			continue
		}

		start := max(i-e.context, 0)
		end := i
		for j := i; j < len(ops); j++ {
			if ops[j].typ != LineContext {
				end = j
				continue
			}
			if j-end > 2*e.context {
				break
			}
		}
		stop := min(end+e.context+1, len(ops))

		h := Hunk{OldStart: startLine(ops[start:stop], true), NewStart: startLine(ops[start:stop], false)}
		for _, op := range ops[start:stop] {
			h.Lines = append(h.Lines, Line{Content: op.content, Type: op.typ})
			if op.typ != LineAdded {
				h.OldCount++
			}
			if op.typ != LineRemoved {
				h.NewCount++
			}
		}
		hunks = append(hunks, h)
		i = stop
	}
	return hunks
}

// startLine is the 1-based first line of the old or new side, or 0 when
// that side of the hunk is empty.
func startLine(ops []operation, old bool) int {
	for _, op := range ops {
		n := op.newLine
		if old {
			n = op.oldLine
		}
		if n >= 0 {
			return n + 1
		}
	}
	return 0
}

// Unified renders the diff in unified format.
func (d *FileDiff) Unified() string {
	if d.Empty() {
		return ""
	}
	var b strings.Builder
	oldPath := d.OldPath
	if d.IsNew {
		oldPath = "/dev/null"
	}
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", oldPath, d.NewPath)
	for _, h := range d.Hunks {
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		for _, l := range h.Lines {
			switch l.Type {
			case LineAdded:
				b.WriteString("+")
			case LineRemoved:
				b.WriteString("-")
			default:
				b.WriteString(" ")
			}
			b.WriteString(l.Content)
			b.WriteString("\n")
		}
	}
	return b.String()
}

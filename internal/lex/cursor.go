package lex

import "go/token"

// Cursor walks one level of trees.
type Cursor struct {
	trees []Tree
	i     int
	end   token.Pos
}

// NewCursor returns a cursor over trees. end is the position reported once
// the trees are exhausted, normally the closing delimiter of the enclosing
// group.
func NewCursor(trees []Tree, end token.Pos) *Cursor {
	return &Cursor{trees: trees, end: end}
}

// Peek returns the next tree without consuming it.
func (c *Cursor) Peek() (Tree, bool) {
	if c.i >= len(c.trees) {
		return Tree{}, false
	}
	return c.trees[c.i], true
}

// Next consumes and returns the next tree.
func (c *Cursor) Next() (Tree, bool) {
	t, ok := c.Peek()
	if ok {
		c.i++
	}
	return t, ok
}

// Pos is the position of the next tree, or the end position when done.
func (c *Cursor) Pos() token.Pos {
	if t, ok := c.Peek(); ok {
		return t.Pos
	}
	return c.end
}

// Done reports whether every tree has been consumed.
func (c *Cursor) Done() bool {
	return c.i >= len(c.trees)
}

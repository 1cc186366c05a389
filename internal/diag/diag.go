// Package diag defines the positioned diagnostics reported when a template
// cannot be expanded. Every diagnostic is fatal for the file it belongs to.
package diag

import (
	"errors"
	"fmt"
	"go/token"
	"sort"
	"strings"
)

// Kind classifies a diagnostic.
type Kind string

const (
	// Lexing
	KindLex Kind = "lex" // unbalanced or mismatched delimiters, bad characters

	// Invocation grammar
	KindMissingBinding Kind = "missing-binding" // no identifier before the comma
	KindMissingComma   Kind = "missing-comma"   // no comma after the binding
	KindMissingIf      Kind = "missing-if"      // no `if` keyword after the comma
	KindMalformedBlock Kind = "malformed-block" // no brace block after the conjunction
	KindTrailingTokens Kind = "trailing-tokens" // tokens after the block

	// Conjunction splitting
	KindBadCondition Kind = "bad-condition" // operand is not a standalone expression
	KindStrayAnd     Kind = "stray-and"     // && with an empty operand on either side
	KindTopLevelOr   Kind = "top-level-or"  // || outside any grouping

	// Generation
	KindNoConditions Kind = "no-conditions"
	KindLabeledBody  Kind = "labeled-body" // body declares a label and is emitted more than once
	KindFormat       Kind = "format" // expanded file is not valid Go
)

// Sentinels, one per kind, so callers can match with errors.Is.
var (
	ErrLex            = errors.New("lexical error")
	ErrMissingBinding = errors.New("missing binding identifier")
	ErrMissingComma   = errors.New("missing comma")
	ErrMissingIf      = errors.New("missing if keyword")
	ErrMalformedBlock = errors.New("malformed block")
	ErrTrailingTokens = errors.New("trailing tokens")
	ErrBadCondition   = errors.New("bad condition")
	ErrStrayAnd       = errors.New("stray &&")
	ErrTopLevelOr     = errors.New("top-level ||")
	ErrNoConditions   = errors.New("no conditions")
	ErrLabeledBody    = errors.New("labeled statement in repeated body")
	ErrFormat         = errors.New("format error")
)

var sentinels = map[Kind]error{
	KindLex:            ErrLex,
	KindMissingBinding: ErrMissingBinding,
	KindMissingComma:   ErrMissingComma,
	KindMissingIf:      ErrMissingIf,
	KindMalformedBlock: ErrMalformedBlock,
	KindTrailingTokens: ErrTrailingTokens,
	KindBadCondition:   ErrBadCondition,
	KindStrayAnd:       ErrStrayAnd,
	KindTopLevelOr:     ErrTopLevelOr,
	KindNoConditions:   ErrNoConditions,
	KindLabeledBody:    ErrLabeledBody,
	KindFormat:         ErrFormat,
}

// Diagnostic is a single positioned failure.
type Diagnostic struct {
	Pos     token.Position
	Kind    Kind
	Message string
}

// New creates a diagnostic. pos may be the zero Position when the reporting
// component has no source position; see At.
func New(pos token.Position, kind Kind, format string, args ...any) *Diagnostic {
	return &Diagnostic{Pos: pos, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (d *Diagnostic) Error() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Pos, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

func (d *Diagnostic) Unwrap() error {
	return sentinels[d.Kind]
}

// At returns err with pos filled in when err is a Diagnostic that has no
// position yet. Other errors are returned unchanged.
func At(err error, pos token.Position) error {
	var d *Diagnostic
	if !errors.As(err, &d) || d.Pos.IsValid() {
		return err
	}
	cp := *d
	cp.Pos = pos
	return &cp
}

// List collects the diagnostics of one file.
type List []*Diagnostic

// Add appends err. Diagnostics (and nested Lists) are flattened; any other
// error becomes an unpositioned lex diagnostic so nothing is dropped.
func (l *List) Add(err error) {
	if err == nil {
		return
	}
	var nested List
	if errors.As(err, &nested) {
		*l = append(*l, nested...)
		return
	}
	var d *Diagnostic
	if errors.As(err, &d) {
		*l = append(*l, d)
		return
	}
	*l = append(*l, &Diagnostic{Kind: KindLex, Message: err.Error()})
}

// Sort orders diagnostics by file, line and column.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i].Pos, l[j].Pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// Err returns nil for an empty list and the list itself otherwise.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	var b strings.Builder
	for i, d := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.Error())
	}
	return b.String()
}

// Unwrap exposes every diagnostic to errors.Is and errors.As.
func (l List) Unwrap() []error {
	errs := make([]error, len(l))
	for i, d := range l {
		errs[i] = d
	}
	return errs
}

package split

import (
	"errors"
	"go/token"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whichfailed/internal/diag"
	"whichfailed/internal/lex"
)

func splitText(t *testing.T, conj string) ([]Condition, error) {
	t.Helper()
	src, trees, err := lex.Scan(token.NewFileSet(), "conj.gowf", []byte(conj))
	require.NoError(t, err)
	return Split(src, trees)
}

func texts(conds []Condition) []string {
	out := make([]string, len(conds))
	for i, c := range conds {
		out[i] = c.Text
	}
	return out
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		conj string
		want []string
	}{
		{name: "three idents", conj: "wife && admin && open", want: []string{"wife", "admin", "open"}},
		{name: "comparisons", conj: "val > 3 && val < 4 && val == 5", want: []string{"val > 3", "val < 4", "val == 5"}},
		{name: "nested group stays whole", conj: "(x && y) && z", want: []string{"(x && y)", "z"}},
		{name: "brackets stay whole", conj: "m[a && b] && c", want: []string{"m[a && b]", "c"}},
		{name: "call arguments stay whole", conj: "ok(a && b, c) && !done", want: []string{"ok(a && b, c)", "!done"}},
		{name: "single condition", conj: "ready", want: []string{"ready"}},
		{name: "bitwise and is not a split", conj: "x&mask != 0 && y", want: []string{"x&mask != 0", "y"}},
		{name: "address-of after and", conj: "p == & q && r", want: []string{"p == &q", "r"}},
		{name: "parenthesized or", conj: "(a || b) && c", want: []string{"(a || b)", "c"}},
		{name: "canonical spacing", conj: "val>3&&f(a,b)", want: []string{"val > 3", "f(a, b)"}},
		{name: "multi line", conj: "a &&\n\tb", want: []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conds, err := splitText(t, tt.conj)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, texts(conds)); diff != "" {
				t.Fatalf("conditions mismatch (-want +got):\n%s", diff)
			}
			for _, c := range conds {
				assert.NotNil(t, c.Expr)
				assert.True(t, c.Pos.IsValid())
			}
		})
	}
}

func TestSplit_EmptyInputYieldsNoConditions(t *testing.T) {
	conds, err := Split(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, conds)
}

func TestSplit_TextIsDeterministic(t *testing.T) {
	first, err := splitText(t, "len(xs)>0&&xs[0]  ==  'a'")
	require.NoError(t, err)
	second, err := splitText(t, "len(xs)>0&&xs[0]  ==  'a'")
	require.NoError(t, err)

	assert.Equal(t, texts(first), texts(second))
	assert.Equal(t, []string{"len(xs) > 0", "xs[0] == 'a'"}, texts(first))
}

func TestSplit_Failures(t *testing.T) {
	tests := []struct {
		name    string
		conj    string
		want    error
		message string
		column  int
	}{
		{name: "leading and", conj: "&& a", want: diag.ErrStrayAnd, message: "no left operand", column: 1},
		{name: "trailing and", conj: "a && b &&", want: diag.ErrStrayAnd, message: "no right operand", column: 8},
		{name: "doubled and", conj: "a && && b", want: diag.ErrStrayAnd, message: "no left operand", column: 6},
		{name: "top-level or", conj: "a || b && c", want: diag.ErrTopLevelOr, message: "parenthesize", column: 3},
		{name: "not an expression", conj: "a && b c", want: diag.ErrBadCondition, message: `"b c"`, column: 6},
		{name: "statement", conj: "x := 1 && y", want: diag.ErrBadCondition, message: `"x := 1"`, column: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conds, err := splitText(t, tt.conj)
			require.Error(t, err)
			assert.Nil(t, conds)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var d *diag.Diagnostic
			require.True(t, errors.As(err, &d))
			assert.Contains(t, d.Message, tt.message)
			assert.Equal(t, tt.column, d.Pos.Column)
		})
	}
}

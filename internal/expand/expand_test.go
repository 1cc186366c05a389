package expand

import (
	"context"
	"errors"
	"go/parser"
	"go/token"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whichfailed/internal/diag"
	"whichfailed/internal/sandbox"
)

func expandString(t *testing.T, src string, opts Options) *Result {
	t.Helper()
	res, err := Source("test.gowf", []byte(src), opts)
	require.NoError(t, err)
	return res
}

// run expands src, interprets it and returns what its Run function returns.
func run(t *testing.T, src string) string {
	t.Helper()
	res := expandString(t, src, DefaultOptions())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out, err := sandbox.New(nil).Call(ctx, string(res.Output), "Run")
	require.NoError(t, err, string(res.Output))
	return out
}

func program(decls, body string) string {
	return "package main\n\n" + decls + "\nfunc Run() string {\n\tout := \"\"\n" + body + "\n\treturn out\n}\n"
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "second of three fails",
			body: `	wife, admin, open := true, false, true
	whichfailed!(failed, if wife && admin && open {
		out += failed
	})`,
			want: "admin",
		},
		{
			name: "first of two fails",
			body: `	a, b := false, true
	whichfailed!(failed, if a && b {
		out += failed
	})`,
			want: "a",
		},
		{
			name: "all true runs nothing",
			body: `	a, b, c := true, true, true
	whichfailed!(failed, if a && b && c {
		out += "ran:" + failed
	})`,
			want: "",
		},
		{
			name: "comparison text is captured",
			body: `	val := 4
	whichfailed!(failed, if val > 3 && val < 4 && val == 5 {
		out += failed
	})`,
			want: "val < 4",
		},
		{
			name: "single condition",
			body: `	ready := false
	whichfailed!(failed, if ready {
		out += failed
	})`,
			want: "ready",
		},
		{
			name: "grouped operand is one condition",
			body: `	x, y, z := true, false, true
	whichfailed!(failed, if (x && y) && z {
		out += failed
	})`,
			want: "(x && y)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(t, program("", tt.body)))
		})
	}
}

func TestShortCircuitOrder(t *testing.T) {
	src := program(`var trace string

func step(n string, v bool) bool {
	trace += n
	return v
}
`, `	whichfailed!(failed, if step("1", true) && step("2", false) && step("3", true) {
		out += failed + "|"
	})
	out += trace`)

	assert.Equal(t, `step("2", false)|12`, run(t, src))
}

func TestBodyRunsOnceAndSeesOuterScope(t *testing.T) {
	src := program("", `	count := 0
	a, b := true, false
	whichfailed!(why, if a && b {
		count++
		out += why
	})
	if count != 1 {
		out = "body ran wrong number of times"
	}`)

	assert.Equal(t, "b", run(t, src))
}

func TestBindingMayBeShadowed(t *testing.T) {
	src := program("", `	a := false
	whichfailed!(why, if a {
		why := "shadowed " + why
		out += why
	})`)

	assert.Equal(t, "shadowed a", run(t, src))
}

func TestNestedInvocation(t *testing.T) {
	src := program("", `	a, b, c, d := true, false, false, true
	whichfailed!(outer, if a && b {
		whichfailed!(inner, if c && d {
			out += outer + "/" + inner
		})
	})`)

	assert.Equal(t, "b/c", run(t, src))

	res := expandString(t, src, DefaultOptions())
	require.Len(t, res.Expansions, 2)
	assert.Equal(t, "outer", res.Expansions[0].Binding)
	assert.Equal(t, "inner", res.Expansions[1].Binding)
}

func TestMultipleSites(t *testing.T) {
	src := program("", `	x, y := 1, 2
	whichfailed!(first, if x == 1 && y == 3 {
		out += first + ";"
	});
	whichfailed!(second, if x > 0 && y > 0 {
		out += second
	})`)

	assert.Equal(t, "y == 3;", run(t, src))
}

func TestCRLFTemplateWithRawStringCondition(t *testing.T) {
	src := program("", "\ts := \"a\\nb\"\n\twhichfailed!(w, if s != `a\nb` && s != \"\" {\n\t\tout += w\n\t})")
	src = strings.ReplaceAll(src, "\n", "\r\n")

	assert.Equal(t, "s != `a\nb`", run(t, src))
}

func TestSource_OutputShape(t *testing.T) {
	src := "package p\n\nfunc f(a, b bool) {\n\twhichfailed!(w, if a && b { println(w) })\n}\n"
	res := expandString(t, src, DefaultOptions())
	out := string(res.Output)

	assert.True(t, strings.HasPrefix(out, "// Code generated by whichfailed from test.gowf. DO NOT EDIT.\n"))
	assert.Contains(t, out, "if !(a) {")
	assert.Contains(t, out, "} else if !(b) {")
	assert.Contains(t, out, `const w = "a"`)
	assert.Contains(t, out, `const w = "b"`)
	assert.NotContains(t, out, "whichfailed!")
	assert.NotContains(t, out, "} else {")

	_, err := parser.ParseFile(token.NewFileSet(), "out.go", res.Output, parser.ParseComments)
	require.NoError(t, err)

	require.Len(t, res.Expansions, 1)
	e := res.Expansions[0]
	assert.Equal(t, 4, e.Pos.Line)
	assert.Equal(t, 2, e.Pos.Column)
	if diff := cmp.Diff([]string{"a", "b"}, []string{e.Conditions[0].Text, e.Conditions[1].Text}); diff != "" {
		t.Errorf("conditions mismatch (-want +got):\n%s", diff)
	}
}

func TestSource_NoHeaderNoFormat(t *testing.T) {
	src := "package p\nfunc f(a bool) { whichfailed!(w, if a { _ = w }) }\n"
	res := expandString(t, src, Options{})
	out := string(res.Output)

	assert.True(t, strings.HasPrefix(out, "package p\n"))
	assert.Contains(t, out, "func f(a bool) { if !(a) {")
	assert.True(t, strings.HasSuffix(out, "} }\n"))
}

func TestSource_CustomMacro(t *testing.T) {
	src := "package p\nfunc f(a, b bool) {\n\tfirstfalse!(w, if a && b { _ = w })\n\twhichfailed := 1\n\t_ = whichfailed\n}\n"
	res := expandString(t, src, Options{Macro: "firstfalse", Format: true})
	assert.Contains(t, string(res.Output), "if !(a) {")
	assert.Contains(t, string(res.Output), "whichfailed := 1")
}

func TestSource_TemplateWithoutSites(t *testing.T) {
	src := "package p\n\nvar X = 1\n"
	res := expandString(t, src, Options{Format: true})
	assert.Equal(t, src, string(res.Output))
	assert.Empty(t, res.Expansions)
}

func TestSource_Diagnostics(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		want   []error
		line   int
		column int
	}{
		{
			name:   "empty conjunction",
			src:    "package p\nfunc f() {\n\twhichfailed!(w, if { _ = w })\n}\n",
			want:   []error{diag.ErrNoConditions},
			line:   3,
			column: 2,
		},
		{
			name:   "missing if",
			src:    "package p\nfunc f(a bool) {\n\twhichfailed!(w, a { _ = w })\n}\n",
			want:   []error{diag.ErrMissingIf},
			line:   3,
			column: 18,
		},
		{
			name:   "unbalanced",
			src:    "package p\nfunc f(a bool) {\n\twhichfailed!(w, if a { _ = w }\n}\n",
			want:   []error{diag.ErrLex},
			line:   2,
			column: 16, // the function's brace is reported unclosed first
		},
		{
			name:   "not valid Go after expansion",
			src:    "package p\nvar = 1\n",
			want:   []error{diag.ErrFormat},
			line:   1,
			column: 1,
		},
		{
			name:   "label repeated across branches",
			src:    "package p\nfunc f(a, b bool) {\n\twhichfailed!(w, if a && b {\n\tL:\n\t\t_ = w\n\t\tgoto L\n\t})\n}\n",
			want:   []error{diag.ErrLabeledBody},
			line:   4,
			column: 2,
		},
		{
			name:   "stray and inside nested body",
			src:    "package p\nfunc f(a, b bool) {\n\twhichfailed!(w, if a {\n\t\twhichfailed!(v, if b && { _ = v })\n\t})\n}\n",
			want:   []error{diag.ErrStrayAnd},
			line:   4,
			column: 24,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Source("bad.gowf", []byte(tt.src), DefaultOptions())
			require.Error(t, err)
			assert.Nil(t, res)
			for _, want := range tt.want {
				assert.True(t, errors.Is(err, want), "got %v", err)
			}

			var list diag.List
			require.True(t, errors.As(err, &list))
			require.NotEmpty(t, list)
			assert.Equal(t, "bad.gowf", list[0].Pos.Filename)
			assert.Equal(t, tt.line, list[0].Pos.Line)
			assert.Equal(t, tt.column, list[0].Pos.Column)
		})
	}
}

func TestSource_LabelsThatStayUnique(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "single condition",
			src:  "package p\nfunc f(a bool) {\n\twhichfailed!(w, if a {\n\tL:\n\t\t_ = w\n\t\tgoto L\n\t})\n}\n",
		},
		{
			name: "label inside function literal",
			src:  "package p\nfunc f(a, b bool) {\n\twhichfailed!(w, if a && b {\n\t\tfunc() {\n\t\tL:\n\t\t\tgoto L\n\t\t}()\n\t\t_ = w\n\t})\n}\n",
		},
		{
			name: "composite literal key",
			src:  "package p\nfunc f(a, b bool) {\n\twhichfailed!(w, if a && b {\n\t\t_ = map[string]int{w: 1}\n\t})\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Source("labels.gowf", []byte(tt.src), DefaultOptions())
			assert.NoError(t, err)
		})
	}
}

func TestSource_ReportsEverySiteInFile(t *testing.T) {
	src := "package p\nfunc f(a bool) {\n\twhichfailed!(w, if a || a { _ = w })\n\twhichfailed!(w, if { _ = w })\n\twhichfailed!(w, if a { _ = w })\n}\n"
	_, err := Source("bad.gowf", []byte(src), DefaultOptions())
	require.Error(t, err)

	var list diag.List
	require.True(t, errors.As(err, &list))
	require.Len(t, list, 2)
	assert.Equal(t, diag.KindTopLevelOr, list[0].Kind)
	assert.Equal(t, 3, list[0].Pos.Line)
	assert.Equal(t, diag.KindNoConditions, list[1].Kind)
	assert.Equal(t, 4, list[1].Pos.Line)
	assert.Contains(t, err.Error(), "bad.gowf:4:2: no-conditions: at least one condition is required")
}

func TestSource_Deterministic(t *testing.T) {
	src := program("", "\tv := 1\n\twhichfailed!(w, if v>0&&v<1 { out += w })")
	first := expandString(t, src, DefaultOptions())
	second := expandString(t, src, DefaultOptions())
	assert.Equal(t, string(first.Output), string(second.Output))
	assert.Contains(t, string(first.Output), `const w = "v < 1"`)
}

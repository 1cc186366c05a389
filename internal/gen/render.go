package gen

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"
)

var chainTemplate = template.Must(template.New("chain").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(`{{range $i, $b := .Branches}}{{if $i}} else {{end}}if !({{$b.Cond}}) {
	const {{$.Binding}} = {{quote $b.Text}}
	{{$b.Body}}
}{{end}}`))

// Render emits the chain as Go statements. The binding is an untyped string
// constant so a body that never reads it still compiles, and the body is
// nested as its own block so it may shadow the binding. The body is copied
// into every branch, so a body declaring a label yields duplicate labels when
// the chain has more than one branch; the expander rejects such bodies.
func Render(c *Chain) (string, error) {
	var buf bytes.Buffer
	if err := chainTemplate.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("render chain for %s: %w", c.Binding, err)
	}
	return buf.String(), nil
}

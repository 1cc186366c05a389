package expand

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whichfailed/internal/sandbox"
)

// The demo template and its checked-in expansion must behave identically.
func TestDemoTemplate(t *testing.T) {
	path := filepath.Join("..", "..", "examples", "demo", "demo.gowf")
	src, err := os.ReadFile(path)
	require.NoError(t, err)

	res, err := Source(path, src, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Expansions, 5)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	got, err := sandbox.New(nil).Call(ctx, string(res.Output), "Report")
	require.NoError(t, err)

	assert.Equal(t, `admin failed

--- Testing different failure scenarios ---

First test: a failed
Second test: z failed
Complex expr test: val < 4 failed

Done!
`, got)

	generated, err := os.ReadFile(filepath.Join("..", "..", "examples", "demo", "demo.go"))
	require.NoError(t, err)
	assert.Contains(t, string(generated), "// Code generated by whichfailed from demo.gowf. DO NOT EDIT.")
	for _, e := range res.Expansions {
		for _, b := range e.Chain.Branches {
			assert.Contains(t, string(generated), "const "+e.Binding+" = \""+b.Text, "checked-in demo.go is stale")
		}
	}
}

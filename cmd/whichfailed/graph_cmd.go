package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"whichfailed/internal/expand"
	"whichfailed/internal/gen"
)

// graphCmd exports chains as Graphviz
var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Print each call site's branch chain as Graphviz DOT",
	Long: `Prints one digraph per call site in the template. Pipe into dot to render:

  whichfailed graph demo.gowf | dot -Tsvg > chains.svg`,
	Args: cobra.ExactArgs(1),
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	path := resolve(args[0])
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	res, err := expand.Source(path, data, expandOptions())
	if err != nil {
		printDiagnostics(cmd.ErrOrStderr(), err)
		return fmt.Errorf("%s has errors", path)
	}

	out := cmd.OutOrStdout()
	for _, e := range res.Expansions {
		dot, err := gen.DOT(e.Chain, fmt.Sprintf("%s_L%d", e.Binding, e.Pos.Line))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "// %s\n%s\n", e.Pos, dot)
	}
	return nil
}

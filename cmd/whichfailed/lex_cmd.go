package main

import (
	"fmt"
	"go/token"
	"os"

	"github.com/spf13/cobra"

	"whichfailed/internal/lex"
)

// lexCmd dumps the token trees of a template
var lexCmd = &cobra.Command{
	Use:   "lex <file>",
	Short: "Print the token trees of a template (debugging)",
	Args:  cobra.ExactArgs(1),
	RunE:  runLex,
}

func init() {
	rootCmd.AddCommand(lexCmd)
}

func runLex(cmd *cobra.Command, args []string) error {
	path := resolve(args[0])
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	src, trees, err := lex.Scan(token.NewFileSet(), path, data)
	if err != nil {
		printDiagnostics(cmd.ErrOrStderr(), err)
		return fmt.Errorf("%s does not lex", path)
	}
	return lex.Dump(cmd.OutOrStdout(), src, trees)
}

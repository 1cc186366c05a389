package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"whichfailed/internal/expand"
	"whichfailed/internal/sandbox"
)

// runCmd interprets an expanded template
var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Expand a main-package template in memory and interpret it",
	Long: `Expands the template without writing anything and runs its main function
with the yaegi interpreter. Only the imports listed in sandbox.allowed_imports
are accepted.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplate,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runTemplate(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := commandContext(cmd, cfg.GetSandboxTimeout())
	defer cancel()

	if err := sandbox.New(cfg.Sandbox.AllowedImports).Run(ctx, string(res.Output), cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	return nil
}

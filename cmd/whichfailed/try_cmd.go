package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"whichfailed/internal/sim"
)

var tryVars []string

// tryCmd evaluates a conjunction against bindings
var tryCmd = &cobra.Command{
	Use:   "try <conjunction>",
	Short: "Report which condition of a conjunction fails for given values",
	Long: `Splits the conjunction exactly as expansion does, then evaluates the
conditions in order against the --var bindings and reports the first false
one. Values are read as bool, int, float or quoted string.

Example:
  whichfailed try 'val > 3 && val < 4 && val == 5' --var val=4`,
	Args: cobra.ExactArgs(1),
	RunE: runTry,
}

func init() {
	tryCmd.Flags().StringArrayVar(&tryVars, "var", nil, "Binding name=value (repeatable)")
	rootCmd.AddCommand(tryCmd)
}

func runTry(cmd *cobra.Command, args []string) error {
	chain, err := sim.Chain(args[0])
	if err != nil {
		printDiagnostics(cmd.ErrOrStderr(), err)
		return fmt.Errorf("invalid conjunction")
	}
	env, err := sim.ParseBindings(tryVars)
	if err != nil {
		return err
	}
	outcome, err := sim.Run(chain, env)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !outcome.Failed {
		fmt.Fprintf(out, "%s all %d conditions held, nothing runs\n", paint(successStyle, "skip:"), len(chain.Branches))
		return nil
	}
	fmt.Fprintf(out, "%s %s (condition %d of %d)\n",
		paint(errorStyle, "failed:"), outcome.Text, outcome.Index+1, len(chain.Branches))
	return nil
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"whichfailed/internal/diff"
	"whichfailed/internal/expand"
)

var (
	dryRun   bool
	toStdout bool
	showDiff bool
)

// expandCmd expands templates and writes the generated files
var expandCmd = &cobra.Command{
	Use:   "expand [paths...]",
	Short: "Expand templates into Go source",
	Long: `Expands every template found in the given files or directories (default:
the workspace) and writes each result next to its template, replacing the
template extension with the output extension. Files whose output did not
change are left untouched. A template with any diagnostic is not written.

Examples:
  whichfailed expand
  whichfailed expand ./internal/rules
  whichfailed expand --stdout demo.gowf
  whichfailed expand --diff`,
	RunE: runExpand,
}

// checkCmd validates templates without writing
var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Report diagnostics without writing any file",
	RunE:  runCheck,
}

func init() {
	expandCmd.Flags().BoolVar(&dryRun, "dry-run", false, "List files that would change without writing them")
	expandCmd.Flags().BoolVar(&toStdout, "stdout", false, "Print expanded source instead of writing it")
	expandCmd.Flags().BoolVar(&showDiff, "diff", false, "Print a unified diff against the files on disk instead of writing")

	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(checkCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	write := !dryRun && !toStdout && !showDiff
	outcomes, err := runBatch(cmd, args, write)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	engine := diff.NewEngine(3)
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		switch {
		case toStdout:
			fmt.Fprintf(out, "// %s\n%s", o.Output, o.Result.Output)
		case dryRun:
			changed, err := outputChanged(o)
			if err != nil {
				return err
			}
			if changed {
				fmt.Fprintf(out, "would write %s\n", o.Output)
			}
		case showDiff:
			existing, err := readIfExists(o.Output)
			if err != nil {
				return err
			}
			fmt.Fprint(out, engine.ComputeDiff(o.Output, o.Output, string(existing), string(o.Result.Output)).Unified())
		case o.Written:
			fmt.Fprintf(out, "%s %s\n", paint(successStyle, "wrote"), o.Output)
		case verbose:
			fmt.Fprintf(out, "%s %s\n", paint(mutedStyle, "unchanged"), o.Output)
		}
	}
	if write {
		logger.Debug("expansion finished", zap.Int("templates", len(outcomes)))
	}
	return summarize(outcomes)
}

func runCheck(cmd *cobra.Command, args []string) error {
	outcomes, err := runBatch(cmd, args, false)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d call sites)\n", paint(successStyle, "ok"), o.Source, len(o.Result.Expansions))
		}
	}
	return summarize(outcomes)
}

// runBatch discovers templates under args and expands them, printing the
// diagnostics of failing files to the command's error stream.
func runBatch(cmd *cobra.Command, args []string, write bool) ([]expand.Outcome, error) {
	paths, err := expand.Discover(resolveAll(args), cfg.SourceExt)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "no %s templates found\n", cfg.SourceExt)
		return nil, nil
	}

	ctx, cancel := commandContext(cmd, 0)
	defer cancel()

	outcomes, err := newExpander(nil).Run(ctx, paths, write)
	if err != nil {
		return nil, fmt.Errorf("expansion interrupted: %w", err)
	}
	for _, o := range outcomes {
		if o.Err != nil {
			printDiagnostics(cmd.ErrOrStderr(), o.Err)
		}
	}
	return outcomes, nil
}

func outputChanged(o expand.Outcome) (bool, error) {
	existing, err := readIfExists(o.Output)
	if err != nil {
		return false, err
	}
	return existing == nil || string(existing) != string(o.Result.Output), nil
}

func summarize(outcomes []expand.Outcome) error {
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d templates failed", failed, len(outcomes))
	}
	return nil
}

// readIfExists returns nil, nil for a missing file.
func readIfExists(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

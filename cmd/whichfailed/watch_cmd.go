package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"whichfailed/internal/expand"
	"whichfailed/internal/logging"
	"whichfailed/internal/watch"
)

// watchCmd re-expands templates as they change
var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Expand templates, then re-expand each one when it changes",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dirs := resolveAll(args)
	ctx, cancel := commandContext(cmd, 0)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	exp := newExpander(expand.NewCache(1024))
	paths, err := expand.Discover(dirs, cfg.SourceExt)
	if err != nil {
		return err
	}
	errOut := cmd.ErrOrStderr()
	out := cmd.OutOrStdout()

	initial, err := exp.Run(ctx, paths, true)
	if err != nil {
		return err
	}
	for _, o := range initial {
		if o.Err != nil {
			printDiagnostics(errOut, o.Err)
		}
	}
	w, err := watch.New(dirs, cfg.SourceExt, cfg.GetWatchDebounce(), func(ctx context.Context, path string) error {
		outcomes, err := exp.Run(ctx, []string{path}, true)
		if err != nil {
			return err
		}
		for _, o := range outcomes {
			switch {
			case o.Err != nil:
				printDiagnostics(errOut, o.Err)
			case o.Written:
				fmt.Fprintf(out, "%s %s\n", paint(successStyle, "wrote"), o.Output)
			}
		}
		return summarize(outcomes)
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()

	logging.Watch("watching %d directories for %s changes", len(dirs), cfg.SourceExt)
	fmt.Fprintf(out, "watching %d templates, press Ctrl-C to stop\n", len(paths))
	<-ctx.Done()

	stats := w.Stats()
	logging.Watch("stopped after %d expansions, %d errors", stats.Expansions, stats.Errors)
	return nil
}

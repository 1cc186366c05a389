package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"whichfailed/internal/config"
	"whichfailed/internal/expand"
	"whichfailed/internal/logging"
)

var (
	// Global flags
	verbose   bool
	workspace string
	cfgFile   string
	noColor   bool
	timeout   time.Duration

	// Resolved in PersistentPreRunE
	cfg    = config.DefaultConfig()
	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "whichfailed",
	Short: "Expand whichfailed! templates into first-false-condition branch chains",
	Long: `whichfailed rewrites templates (*.gowf) into Go source. Every call site

  whichfailed!(name, if a && b && c { ... })

becomes an if / else-if chain that runs the block once, with name bound to
the text of the first condition that was false. When every condition holds
nothing runs.

Add "//go:generate whichfailed expand" to a package to regenerate on go generate.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: <workspace>/"+config.DefaultFile+")")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Operation timeout (default: none, sandbox.timeout for run)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and initializes logging.
func setup() error {
	path := cfgFile
	if path == "" {
		path = filepath.Join(workspaceDir(), config.DefaultFile)
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg = loaded

	l, err := logging.Build(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Outputs: cfg.Logging.Outputs(),
		Verbose: verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	logging.Initialize(logger, cfg.Logging.Categories)
	logging.BootDebug("config %s: macro=%s ext=%s->%s workers=%d", path, cfg.Macro, cfg.SourceExt, cfg.OutputExt, cfg.Workers)
	return nil
}

func workspaceDir() string {
	if workspace == "" {
		return "."
	}
	return workspace
}

// resolve interprets a command-line path relative to the workspace.
func resolve(p string) string {
	if filepath.IsAbs(p) || workspace == "" {
		return p
	}
	return filepath.Join(workspace, p)
}

func resolveAll(paths []string) []string {
	if len(paths) == 0 {
		return []string{workspaceDir()}
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = resolve(p)
	}
	return out
}

func expandOptions() expand.Options {
	return expand.Options{Macro: cfg.Macro, Header: cfg.Header, Format: cfg.Gofmt}
}

func newExpander(cache *expand.Cache) *expand.Expander {
	return expand.New(expand.Config{
		Options:   expandOptions(),
		SourceExt: cfg.SourceExt,
		OutputExt: cfg.OutputExt,
		Workers:   cfg.Workers,
		Cache:     cache,
	})
}

// commandContext returns the command's context bounded by --timeout.
func commandContext(cmd *cobra.Command, fallback time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d := timeout
	if d <= 0 {
		d = fallback
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

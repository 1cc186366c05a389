package expand

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"whichfailed/internal/logging"
)

// Expander expands templates on disk.
type Expander struct {
	opts      Options
	sourceExt string
	outputExt string
	workers   int
	cache     *Cache
}

// Config configures an Expander.
type Config struct {
	Options   Options
	SourceExt string // template extension, e.g. ".gowf"
	OutputExt string // generated extension, e.g. ".go"
	Workers   int    // parallel files; 0 means GOMAXPROCS
	Cache     *Cache // optional
}

// New creates an Expander.
func New(cfg Config) *Expander {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Expander{
		opts:      cfg.Options,
		sourceExt: cfg.SourceExt,
		outputExt: cfg.OutputExt,
		workers:   workers,
		cache:     cfg.Cache,
	}
}

// SourceExt is the template extension the Expander looks for.
func (e *Expander) SourceExt() string { return e.sourceExt }

// OutputPath maps a template path to the path of its generated file.
func (e *Expander) OutputPath(path string) string {
	return strings.TrimSuffix(path, e.sourceExt) + e.outputExt
}

// Expand expands src, consulting the cache when one is configured.
func (e *Expander) Expand(filename string, src []byte) (*Result, error) {
	if e.cache == nil {
		return Source(filename, src, e.opts)
	}
	return e.cache.GetOrCompute(Key(filename, src, e.opts), func() (*Result, error) {
		return Source(filename, src, e.opts)
	})
}

// ExpandFile reads and expands the template at path.
func (e *Expander) ExpandFile(path string) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return e.Expand(path, src)
}

// Outcome is the result of processing one template in a batch.
type Outcome struct {
	Source  string
	Output  string
	Result  *Result
	Err     error // diagnostics or I/O failure; the output was not written
	Written bool  // false when the output already matched
}

// Run expands every template in paths in parallel. With write set, each
// successful expansion is written next to its template unless the file on
// disk already holds the same bytes. A failing file never stops the others;
// only cancellation of ctx makes Run return an error.
func (e *Expander) Run(ctx context.Context, paths []string, write bool) ([]Outcome, error) {
	outcomes := make([]Outcome, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			o := Outcome{Source: path, Output: e.OutputPath(path)}
			o.Result, o.Err = e.ExpandFile(path)
			if o.Err == nil && write {
				o.Written, o.Err = WriteIfChanged(o.Output, o.Result.Output)
			}
			if o.Err != nil {
				logging.ExpandWarn("%s: expansion failed", path)
			} else {
				logging.ExpandDebug("%s -> %s (written=%t)", path, o.Output, o.Written)
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// Failed reports whether any outcome carries an error.
func Failed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Err != nil {
			return true
		}
	}
	return false
}

// WriteIfChanged writes data to path unless the file already holds it.
func WriteIfChanged(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// Discover resolves paths to template files. Directories are walked
// recursively, skipping those the go tool ignores (hidden, underscore
// prefixed, testdata, vendor). A file named explicitly must carry ext.
func Discover(paths []string, ext string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			if !strings.HasSuffix(root, ext) {
				return nil, fmt.Errorf("%s is not a %s template", root, ext)
			}
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, ext) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	sort.Strings(out)
	return out, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
		name == "testdata" || name == "vendor"
}

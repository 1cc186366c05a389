// Package sandbox runs expanded Go source in the yaegi interpreter. Only
// whitelisted standard library imports are accepted.
package sandbox

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"whichfailed/internal/logging"
)

// DefaultImports is the whitelist used when none is configured.
var DefaultImports = []string{"fmt", "strings", "strconv", "errors", "math", "sort", "unicode"}

// Runner interprets Go programs.
type Runner struct {
	allowed map[string]bool
}

// New creates a Runner accepting only the listed import paths.
func New(allowed []string) *Runner {
	if len(allowed) == 0 {
		allowed = DefaultImports
	}
	r := &Runner{allowed: make(map[string]bool, len(allowed))}
	for _, p := range allowed {
		r.allowed[p] = true
	}
	return r
}

// CheckImports rejects src if it imports anything outside the whitelist.
func (r *Runner) CheckImports(src string) error {
	file, err := parser.ParseFile(token.NewFileSet(), "", src, parser.ImportsOnly)
	if err != nil {
		return fmt.Errorf("parse imports: %w", err)
	}
	var forbidden []string
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return fmt.Errorf("import %s: %w", spec.Path.Value, err)
		}
		if !r.allowed[path] {
			forbidden = append(forbidden, path)
		}
	}
	if len(forbidden) > 0 {
		return fmt.Errorf("forbidden imports %v (allowed: %s)", forbidden, strings.Join(r.Allowed(), ", "))
	}
	return nil
}

// Allowed returns the whitelist, sorted.
func (r *Runner) Allowed() []string {
	out := make([]string, 0, len(r.allowed))
	for p := range r.allowed {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (r *Runner) interpreter(stdout io.Writer) (*interp.Interpreter, error) {
	if stdout == nil {
		stdout = io.Discard
	}
	i := interp.New(interp.Options{Stdout: stdout, Stderr: stdout})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}
	return i, nil
}

// Run evaluates a main package, which runs its main function, writing the
// program's output to stdout.
func (r *Runner) Run(ctx context.Context, src string, stdout io.Writer) error {
	if err := r.CheckImports(src); err != nil {
		return err
	}
	i, err := r.interpreter(stdout)
	if err != nil {
		return err
	}
	logging.SandboxDebug("running %d bytes of source", len(src))
	if _, err := i.EvalWithContext(ctx, src); err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	return nil
}

// Call evaluates src, then calls the package-level function fn, which must
// have the signature func() string, and returns its result.
func (r *Runner) Call(ctx context.Context, src, fn string) (string, error) {
	if err := r.CheckImports(src); err != nil {
		return "", err
	}
	i, err := r.interpreter(nil)
	if err != nil {
		return "", err
	}
	if _, err := i.EvalWithContext(ctx, src); err != nil {
		return "", fmt.Errorf("evaluation failed: %w", err)
	}

	v, err := i.Eval("main." + fn)
	if err != nil {
		return "", fmt.Errorf("%s not found: %w", fn, err)
	}
	f, ok := v.Interface().(func() string)
	if !ok {
		return "", fmt.Errorf("%s has type %s, want func() string", fn, v.Type())
	}

	resultCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				errCh <- fmt.Errorf("%s panicked: %v", fn, p)
			}
		}()
		resultCh <- f()
	}()

	select {
	case res := <-resultCh:
		return res, nil
	case err := <-errCh:
		return "", err
	case <-ctx.Done():
		return "", fmt.Errorf("%s timed out: %w", fn, ctx.Err())
	}
}

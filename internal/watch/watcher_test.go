package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func waitFor(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for handler")
		return ""
	}
}

func TestWatcher_ExpandsChangedTemplate(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	calls := make(chan string, 16)
	w, err := New([]string{dir}, ".gowf", 20*time.Millisecond, func(_ context.Context, path string) error {
		calls <- path
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	path := filepath.Join(dir, "a.gowf")
	require.NoError(t, os.WriteFile(path, []byte("package p\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package p\n"), 0644))

	assert.Equal(t, path, waitFor(t, calls))

	assert.Eventually(t, func() bool { return w.Stats().Expansions >= 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, path, w.Stats().LastEventPath)
}

func TestWatcher_CountsHandlerErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	calls := make(chan string, 16)
	w, err := New([]string{dir}, ".gowf", 20*time.Millisecond, func(_ context.Context, path string) error {
		calls <- path
		return errors.New("bad template")
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	path := filepath.Join(dir, "broken.gowf")
	require.NoError(t, os.WriteFile(path, []byte("package p\n"), 0644))
	assert.Equal(t, path, waitFor(t, calls))

	assert.Eventually(t, func() bool {
		s := w.Stats()
		return s.Expansions >= 1 && s.Errors >= 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	calls := make(chan string, 16)
	w, err := New([]string{dir}, ".gowf", 20*time.Millisecond, func(_ context.Context, path string) error {
		calls <- path
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(sub, "b.gowf")
	require.NoError(t, os.WriteFile(path, []byte("package p\n"), 0644))
	assert.Equal(t, path, waitFor(t, calls))
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New([]string{t.TempDir()}, ".gowf", 10*time.Millisecond, func(context.Context, string) error { return nil })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

func TestWatcher_ContextCancelEndsLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	w, err := New([]string{t.TempDir()}, ".gowf", 10*time.Millisecond, func(context.Context, string) error { return nil })
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))

	cancel()
	select {
	case <-w.doneCh:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not exit on cancel")
	}
	w.Stop()
}

func TestWatcher_MissingRoot(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New([]string{filepath.Join(t.TempDir(), "nope")}, ".gowf", 10*time.Millisecond, func(context.Context, string) error { return nil })
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()))
	require.NoError(t, w.watcher.Close())
}

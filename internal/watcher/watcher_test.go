package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/prodtests/internal/watcher"
)

func startWatcher(t *testing.T, path string) <-chan struct{} {
	t.Helper()
	w, err := watcher.New(watcher.Config{Path: path, DebounceDur: 50 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	onChange, err := w.Start()
	require.NoError(t, err)
	return onChange
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "production_tests.log")
	require.NoError(t, os.WriteFile(path, []byte("start\n"), 0o644))
	onChange := startWatcher(t, path)

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("line %d\n", i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-onChange:
	case <-time.After(time.Second):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "production_tests.log")
	onChange := startWatcher(t, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.log"), []byte("x"), 0o644))

	select {
	case <-onChange:
		t.Fatal("unexpected notification for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_FileCreatedAfterStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "production_tests.log")
	onChange := startWatcher(t, path)

	require.NoError(t, os.WriteFile(path, []byte("created\n"), 0o644))

	select {
	case <-onChange:
	case <-time.After(time.Second):
		t.Fatal("expected notification on create")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := watcher.New(watcher.DefaultConfig(filepath.Join(t.TempDir(), "x.log")))
	require.NoError(t, err)
	_, err = w.Start()
	require.NoError(t, err)

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestWatcher_StartMissingDirectory(t *testing.T) {
	w, err := watcher.New(watcher.DefaultConfig("/nonexistent/dir/x.log"))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	_, err = w.Start()
	require.Error(t, err)
}

func TestWaitCmd(t *testing.T) {
	require.Nil(t, watcher.WaitCmd("x", nil))

	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	msg := watcher.WaitCmd("x.log", ch)()
	require.Equal(t, watcher.ChangedMsg{Path: "x.log"}, msg)
}

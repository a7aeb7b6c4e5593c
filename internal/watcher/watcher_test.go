package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/strand/internal/watcher"
)

func TestWatcher_DebounceCoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	defPath := filepath.Join(dir, "user.yaml")
	require.NoError(t, os.WriteFile(defPath, []byte("components: []"), 0o644))

	w, err := watcher.New(watcher.Config{
		Dirs:        []string{dir},
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")

	// Rapid writes should coalesce into a single notification
	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(defPath, []byte(fmt.Sprintf("# rev %d", i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case batch := <-onChange:
		require.Equal(t, []string{defPath}, batch)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	// No second notification should come quickly
	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
		// Expected
	}
}

func TestWatcher_BatchesDistinctFiles(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(dir, "user.yaml")
	orderPath := filepath.Join(dir, "order.yml")

	w, err := watcher.New(watcher.Config{
		Dirs:        []string{dir},
		DebounceDur: 100 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")

	require.NoError(t, os.WriteFile(userPath, []byte("components: []"), 0o644))
	require.NoError(t, os.WriteFile(orderPath, []byte("components: []"), 0o644))

	select {
	case batch := <-onChange:
		require.ElementsMatch(t, []string{userPath, orderPath}, batch)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected batched notification")
	}
}

func TestWatcher_IgnoresNonDefinitionFiles(t *testing.T) {
	dir := t.TempDir()
	otherPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(otherPath, []byte("initial"), 0o644))

	w, err := watcher.New(watcher.Config{
		Dirs:        []string{dir},
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")

	require.NoError(t, os.WriteFile(otherPath, []byte("changed"), 0o644))

	select {
	case <-onChange:
		t.Fatal("should not notify for non-definition files")
	case <-time.After(150 * time.Millisecond):
		// Expected
	}
}

func TestWatcher_Stop(t *testing.T) {
	dir := t.TempDir()

	w, err := watcher.New(watcher.Config{
		Dirs:        []string{dir},
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")

	_, err = w.Start()
	require.NoError(t, err, "failed to start watcher")

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop(), "Stop returned error")
		close(done)
	}()

	select {
	case <-done:
		// Expected
	case <-time.After(time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("defs", "more")

	assert.Equal(t, []string{"defs", "more"}, cfg.Dirs)
	assert.Equal(t, 250*time.Millisecond, cfg.DebounceDur)
}

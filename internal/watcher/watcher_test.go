package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func newTestWatcher(t *testing.T, root string, fired *atomic.Int32) *Watcher {
	t.Helper()
	w := New(root, func() { fired.Add(1) }, zap.NewNop())
	w.debounce = 100 * time.Millisecond
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestWatcherFiresOnIndexableWrite(t *testing.T) {
	root := t.TempDir()
	var fired atomic.Int32
	newTestWatcher(t, root, &fired)

	if err := os.WriteFile(filepath.Join(root, "policy.txt"), []byte("revenue policy"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return fired.Load() >= 1 }) {
		t.Fatal("callback not invoked after indexable file write")
	}
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	root := t.TempDir()
	var fired atomic.Int32
	newTestWatcher(t, root, &fired)

	if err := os.WriteFile(filepath.Join(root, "notes.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("callback fired %d times for non-indexable file", fired.Load())
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	root := t.TempDir()
	var fired atomic.Int32
	newTestWatcher(t, root, &fired)

	for i := 0; i < 5; i++ {
		name := filepath.Join(root, "doc.md")
		if err := os.WriteFile(name, []byte("update"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !waitFor(t, 2*time.Second, func() bool { return fired.Load() >= 1 }) {
		t.Fatal("callback never fired")
	}
	time.Sleep(300 * time.Millisecond)
	if n := fired.Load(); n > 2 {
		t.Errorf("burst of writes produced %d callbacks", n)
	}
}

func TestWatcherPicksUpNewSubdirectories(t *testing.T) {
	root := t.TempDir()
	var fired atomic.Int32
	newTestWatcher(t, root, &fired)

	sub := filepath.Join(root, "filings")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a beat to register the new directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "10k.pdf"), []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return fired.Load() >= 1 }) {
		t.Fatal("callback not invoked for file in new subdirectory")
	}
}

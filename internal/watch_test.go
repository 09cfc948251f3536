package internal

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

type countingReloader struct {
	calls atomic.Int32
}

func (c *countingReloader) Reload() error {
	c.calls.Add(1)
	return nil
}

func TestWatchTemplatesReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	reloader := &countingReloader{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- WatchTemplates(ctx, dir, reloader, 20*time.Millisecond, nil)
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(filepath.Join(dir, "view.html"), []byte("@CONTENT@"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for reloader.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if reloader.calls.Load() == 0 {
		t.Fatal("expected a reload after template change")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchTemplatesMissingDir(t *testing.T) {
	err := WatchTemplates(context.Background(), filepath.Join(t.TempDir(), "missing"), &countingReloader{}, time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

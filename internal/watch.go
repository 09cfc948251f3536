package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/4thel00z/gitwiki/internal/debounce"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultReloadDelay = 250 * time.Millisecond

type Reloader interface {
	Reload() error
}

// WatchTemplates reloads r whenever files in dir change, batching bursts
// of events into a single reload. It blocks until ctx is done.
func WatchTemplates(ctx context.Context, dir string, r Reloader, delay time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	reload := debounce.New(delay, func() {
		if err := r.Reload(); err != nil {
			logger.Error("reload templates", zap.String("dir", dir), zap.Error(err))
			return
		}
		logger.Info("templates reloaded", zap.String("dir", dir))
	})
	defer reload.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			reload.Trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}

package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vedantwpatil/precision-mouse/internal/logging"
)

// settle absorbs the burst of events an editor produces for one save.
const settle = 100 * time.Millisecond

// Watch sends a freshly loaded Config each time the file at path changes.
// The directory is watched rather than the file so that editors which save
// by renaming a temporary file over the original are followed. Edits that do
// not load or validate are logged and skipped. The channel is closed when ctx
// is done.
func Watch(ctx context.Context, path string, logger *slog.Logger) (<-chan *Config, error) {
	logger = logging.OrDiscard(logger)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", abs, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", abs, err)
	}

	out := make(chan *Config, 1)
	go func() {
		defer close(out)
		defer w.Close()

		timer := time.NewTimer(settle)
		timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				timer.Reset(settle)

			case <-timer.C:
				c, err := Load(abs)
				if err != nil {
					logger.Warn("config reload skipped", "path", abs, "error", err)
					continue
				}
				logger.Info("config reloaded", "path", abs)
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher", "error", err)
			}
		}
	}()
	return out, nil
}

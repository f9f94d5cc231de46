package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the file at path whenever it changes and passes the new
// Config to fn. The directory is watched rather than the file so editors
// that save by rename are seen. A file that fails to parse is logged and
// the previous Config stays in effect. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, fn func(*Config)) error {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("config: watching", "path", abs)

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			timerC = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config: watch error", "error", err)

		case <-timerC:
			timerC = nil
			cfg, err := LoadFile(abs)
			if err != nil {
				logger.Warn("config: reload failed, keeping previous", "path", abs, "error", err)
				continue
			}
			logger.Info("config: reloaded", "path", abs)
			fn(cfg)
		}
	}
}

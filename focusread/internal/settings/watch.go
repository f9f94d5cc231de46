package settings

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// WatchOptions tunes the change poller.
type WatchOptions struct {
	// Interval is the polling frequency. Default: 500ms.
	Interval time.Duration
	// Debounce is the quiet period after a change before the action
	// fires. Further changes inside the window restart it. Default: 0.
	Debounce time.Duration
	Logger   *slog.Logger
}

func (o *WatchOptions) defaults() {
	if o.Interval <= 0 {
		o.Interval = 500 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Watcher polls PRAGMA user_version and delivers freshly loaded settings
// when it moves.
type Watcher struct {
	store *Store
	opts  WatchOptions

	version atomic.Int64
	checks  atomic.Int64
	changes atomic.Int64
	errors  atomic.Int64
}

// WatchStats are point-in-time counters.
type WatchStats struct {
	Checks          int64 `json:"checks"`
	ChangesDetected int64 `json:"changes_detected"`
	Errors          int64 `json:"errors"`
	Version         int64 `json:"version"`
}

// NewWatcher creates a Watcher over store. Call Run to start polling.
func NewWatcher(store *Store, opts WatchOptions) *Watcher {
	opts.defaults()
	return &Watcher{store: store, opts: opts}
}

// Stats returns the current counters.
func (w *Watcher) Stats() WatchStats {
	return WatchStats{
		Checks:          w.checks.Load(),
		ChangesDetected: w.changes.Load(),
		Errors:          w.errors.Load(),
		Version:         w.version.Load(),
	}
}

// Run blocks until ctx is cancelled. When the version changes and the
// debounce window passes quietly, fn receives the settings as now stored.
// If fn returns an error the version is not advanced and the change is
// retried on the next poll.
func (w *Watcher) Run(ctx context.Context, fn func(Settings) error) {
	log := w.opts.Logger

	if v, err := w.store.Version(ctx); err != nil {
		log.Warn("settings: initial version check failed", "error", err)
	} else {
		w.version.Store(v)
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	var debounce *time.Timer
	var debounceCh <-chan time.Time
	pending := int64(-1)

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case <-ticker.C:
			w.checks.Add(1)
			cur, err := w.store.Version(ctx)
			if err != nil {
				w.errors.Add(1)
				log.Warn("settings: version check failed", "error", err)
				continue
			}
			if cur == w.version.Load() || cur == pending {
				continue
			}
			w.changes.Add(1)
			pending = cur
			if w.opts.Debounce <= 0 {
				w.fire(ctx, fn, pending)
				pending = -1
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(w.opts.Debounce)
			debounceCh = debounce.C

		case <-debounceCh:
			debounceCh = nil
			if pending >= 0 {
				w.fire(ctx, fn, pending)
				pending = -1
			}
		}
	}
}

func (w *Watcher) fire(ctx context.Context, fn func(Settings) error, ver int64) {
	st := w.store.LoadOrDefault(ctx)
	if err := fn(st); err != nil {
		w.errors.Add(1)
		w.opts.Logger.Error("settings: reload failed", "version", ver, "error", err)
		return
	}
	w.version.Store(ver)
	w.opts.Logger.Info("settings: reloaded", "version", ver)
}

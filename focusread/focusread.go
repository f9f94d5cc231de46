// Package focusread keeps bionic-reading emphasis and reader typography
// applied to the response containers of a live chat page.
//
// A Reader owns the settings store and runs one reconciliation engine
// against a host: a Chrome tab driven over CDP, or a parsed HTML document.
// Settings written through the Reader, the HTTP surface, the MCP tools or
// another process sharing the database are picked up by the running engine
// and applied without a reload of the page.
package focusread

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/hazyhaar/bionic/focusread/internal/browser"
	"github.com/hazyhaar/bionic/focusread/internal/config"
	"github.com/hazyhaar/bionic/focusread/internal/dom"
	"github.com/hazyhaar/bionic/focusread/internal/livepage"
	"github.com/hazyhaar/bionic/focusread/internal/reconcile"
	"github.com/hazyhaar/bionic/focusread/internal/report"
	"github.com/hazyhaar/bionic/focusread/internal/settings"
	"github.com/hazyhaar/bionic/focusread/internal/walker"
	"github.com/hazyhaar/bionic/focusread/preview"
	"github.com/hazyhaar/bionic/transform"
)

// ErrRunning is returned by Run when the Reader already drives a host.
var ErrRunning = errors.New("focusread: already running")

// Stats is a point-in-time view of the Reader.
type Stats struct {
	Running  bool                `json:"running"`
	Engine   reconcile.Stats     `json:"engine"`
	Settings settings.WatchStats `json:"settings_watch"`
}

// Reader is the top-level orchestrator. Create one per process.
type Reader struct {
	store   *settings.Store
	watcher *settings.Watcher
	sinkR   *report.Router
	logger  *slog.Logger

	mu     sync.Mutex
	cfg    *Config
	cur    Settings
	engine *reconcile.Engine
}

// New opens the settings store named by cfg and creates a Reader.
// A nil cfg uses DefaultConfig.
func New(cfg *Config, logger *slog.Logger, sinks ...Sink) (*Reader, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := settings.Open(cfg.Settings.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("focusread: %w", err)
	}
	if cfg.Report.Stdout {
		sinks = append(sinks, StdoutSink(os.Stdout, cfg.Report.Verbose))
	}

	return &Reader{
		store:   store,
		watcher: settings.NewWatcher(store, settings.WatchOptions{Interval: cfg.Settings.Poll, Logger: logger}),
		sinkR:   report.NewRouter(logger, sinks...),
		logger:  logger,
		cfg:     cfg,
		cur:     store.LoadOrDefault(context.Background()),
	}, nil
}

// Close releases the sinks and the settings database.
func (r *Reader) Close() error {
	return errors.Join(r.sinkR.Close(), r.store.Close())
}

// Config returns the configuration in effect.
func (r *Reader) Config() *Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// Settings returns the settings as currently stored.
func (r *Reader) Settings(ctx context.Context) Settings {
	return r.store.LoadOrDefault(ctx)
}

// UpdateSettings persists p and applies the result to the running engine.
func (r *Reader) UpdateSettings(ctx context.Context, p SettingsPatch) (Settings, error) {
	s, err := r.store.Save(ctx, p)
	if err != nil {
		return Settings{}, err
	}
	r.applySettings(s)
	return s, nil
}

// ResetSettings restores the default settings.
func (r *Reader) ResetSettings(ctx context.Context) (Settings, error) {
	s, err := r.store.Reset(ctx)
	if err != nil {
		return Settings{}, err
	}
	r.applySettings(s)
	return s, nil
}

// Transform applies the emphasis rule to text with the stored settings,
// overlaid with override. The enabled flag is not consulted.
func (r *Reader) Transform(ctx context.Context, text string, override SettingsPatch) string {
	s := r.Settings(ctx).Apply(override)
	return transform.Transform(text, s.TransformOptions(r.Config().TransformBase()))
}

// Preview renders text (a sample sentence when blank) with the stored
// settings overlaid with override.
func (r *Reader) Preview(ctx context.Context, text string, override SettingsPatch) preview.Result {
	s := r.Settings(ctx).Apply(override)
	return preview.Render(s, r.Config().TransformBase(), text)
}

// Rescan queues a manual pass. It reports false when nothing is running.
func (r *Reader) Rescan() bool {
	r.mu.Lock()
	eng := r.engine
	r.mu.Unlock()
	if eng == nil {
		return false
	}
	eng.Notify(reconcile.TriggerManual)
	return true
}

// Stats returns the engine and settings watcher counters.
func (r *Reader) Stats() Stats {
	r.mu.Lock()
	eng := r.engine
	r.mu.Unlock()

	st := Stats{Settings: r.watcher.Stats()}
	if eng != nil {
		st.Running = true
		st.Engine = eng.Stats()
	}
	return st
}

// Run reconciles host until ctx is cancelled. It injects the font
// stylesheet, runs the initial pass and follows settings changes.
func (r *Reader) Run(ctx context.Context, host reconcile.Host) error {
	snap, err := r.snapshot()
	if err != nil {
		return err
	}
	eng := reconcile.New(reconcile.Config{Host: host, Sink: r.sinkR, Logger: r.logger}, snap)

	r.mu.Lock()
	if r.engine != nil {
		r.mu.Unlock()
		return ErrRunning
	}
	r.engine = eng
	fonts := r.cfg.Fonts
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.engine = nil
		r.mu.Unlock()
	}()

	if !fonts.Disabled {
		if err := eng.InjectFonts(ctx, fonts.ID, fonts.Href); err != nil {
			r.logger.Warn("focusread: font injection failed", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.watcher.Run(ctx, func(s Settings) error {
			r.applySettings(s)
			return nil
		})
	}()

	r.logger.Info("focusread: running",
		"selector", snap.Selector,
		"enabled", snap.Enabled,
		"bold_ratio", snap.Walk.Transform.BoldRatio)
	err = eng.Run(ctx)
	cancel()
	wg.Wait()
	return err
}

// RunBrowser connects to Chrome, opens or attaches to the configured tab
// and runs the Reader on it until ctx is cancelled.
func (r *Reader) RunBrowser(ctx context.Context) error {
	bc := r.Config().Browser
	if bc.URL == "" && bc.Attach == "" {
		return errors.New("focusread: browser.url or browser.attach is required")
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL: bc.Remote,
		Headless:  bc.Headless,
		Stealth:   bc.Stealth,
		Timeout:   bc.Timeout,
		Logger:    r.logger,
	})
	if _, err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("focusread: start browser: %w", err)
	}
	defer mgr.Close()

	var tab *browser.Tab
	var err error
	if bc.Attach != "" {
		tab, err = browser.AttachTab(ctx, mgr, bc.Attach)
	} else {
		tab, err = browser.OpenTab(ctx, mgr, bc.URL)
	}
	if err != nil {
		return fmt.Errorf("focusread: %w", err)
	}
	defer tab.Close()

	page := livepage.New(tab.Page, r.logger)
	if err := page.Start(ctx); err != nil {
		return fmt.Errorf("focusread: observe page: %w", err)
	}
	defer page.Stop()

	r.logger.Info("focusread: tab ready", "url", tab.PageURL)
	return r.Run(ctx, page)
}

// ProcessHTML runs a single pass over the HTML document read from in and
// writes the result to out.
func (r *Reader) ProcessHTML(ctx context.Context, in io.Reader, out io.Writer) (Report, error) {
	doc, err := dom.Parse(in)
	if err != nil {
		return Report{}, fmt.Errorf("focusread: %w", err)
	}
	snap, err := r.snapshot()
	if err != nil {
		return Report{}, err
	}
	eng := reconcile.New(reconcile.Config{Host: doc, Sink: r.sinkR, Logger: r.logger}, snap)

	if fonts := r.Config().Fonts; !fonts.Disabled {
		if err := eng.InjectFonts(ctx, fonts.ID, fonts.Href); err != nil {
			return Report{}, err
		}
	}
	rep := eng.Pass(ctx, reconcile.TriggerInitial)
	if err := doc.Render(out); err != nil {
		return rep, fmt.Errorf("focusread: render: %w", err)
	}
	return rep, nil
}

// WatchConfig reloads the configuration file at path on change and
// applies it to the running engine. It blocks until ctx is done.
func (r *Reader) WatchConfig(ctx context.Context, path string) error {
	return config.Watch(ctx, path, 0, r.logger, r.applyConfig)
}

func (r *Reader) applyConfig(cfg *Config) {
	r.mu.Lock()
	if cfg.Settings.DB != r.cfg.Settings.DB {
		r.logger.Warn("focusread: settings.db change needs a restart",
			"current", r.cfg.Settings.DB, "ignored", cfg.Settings.DB)
		cfg.Settings.DB = r.cfg.Settings.DB
	}
	r.cfg = cfg
	r.mu.Unlock()
	r.reload()
}

func (r *Reader) applySettings(s Settings) {
	r.mu.Lock()
	r.cur = s.Normalize()
	r.mu.Unlock()
	r.reload()
}

func (r *Reader) reload() {
	snap, err := r.snapshot()
	if err != nil {
		r.logger.Warn("focusread: reload skipped", "error", err)
		return
	}
	r.mu.Lock()
	eng := r.engine
	r.mu.Unlock()
	if eng != nil {
		eng.Reload(snap)
	}
}

func (r *Reader) snapshot() (*reconcile.Snapshot, error) {
	r.mu.Lock()
	cfg, s := r.cfg, r.cur
	r.mu.Unlock()
	return buildSnapshot(cfg, s)
}

// buildSnapshot combines operator configuration with the reader settings.
func buildSnapshot(cfg *Config, s Settings) (*reconcile.Snapshot, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	s = s.Normalize()
	return &reconcile.Snapshot{
		Selector: cfg.Selector,
		Enabled:  s.Enabled,
		Walk: walker.Options{
			Transform: s.TransformOptions(cfg.TransformBase()),
			Policy:    policy,
			Marker:    cfg.Marker,
		},
		Typography:       s.Typography(),
		MutationWindow:   cfg.Debounce.Mutation,
		ScrollWindow:     cfg.Debounce.Scroll,
		PeriodicInterval: cfg.Debounce.Periodic,
	}, nil
}

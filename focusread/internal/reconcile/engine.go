package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/bionic/focusread/internal/report"
	"github.com/hazyhaar/bionic/focusread/internal/walker"
	"github.com/hazyhaar/bionic/idgen"
)

// ErrRunning is returned by Run when the engine loop is already running.
var ErrRunning = errors.New("reconcile: engine already running")

// Config for creating an Engine.
type Config struct {
	Host   Host
	Sink   report.Sink
	Logger *slog.Logger
	NewID  idgen.Generator
}

// Engine runs reconciliation passes against a Host.
type Engine struct {
	host   Host
	sink   report.Sink
	logger *slog.Logger
	newID  idgen.Generator

	sched    *Scheduler
	snap     atomic.Pointer[Snapshot]
	reloadCh chan *Snapshot
	running  atomic.Bool

	mu    sync.Mutex
	stats Stats
}

// New creates an Engine with the given initial snapshot.
func New(cfg Config, snap *Snapshot) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Sink == nil {
		cfg.Sink = report.Discard{}
	}
	if cfg.NewID == nil {
		cfg.NewID = idgen.Prefixed("pass_", idgen.Default)
	}

	e := &Engine{
		host:     cfg.Host,
		sink:     cfg.Sink,
		logger:   cfg.Logger,
		newID:    cfg.NewID,
		sched:    NewScheduler(),
		reloadCh: make(chan *Snapshot, 1),
		stats:    Stats{ByTrigger: make(map[string]uint64)},
	}
	e.snap.Store(snap.normalized())
	return e
}

// Snapshot returns the snapshot the next pass will use.
func (e *Engine) Snapshot() *Snapshot {
	return e.snap.Load()
}

// Notify arms the timer for t with the current snapshot's window.
func (e *Engine) Notify(t Trigger) {
	e.sched.Arm(t, e.Snapshot().window(t))
}

// Reload hands a new snapshot to the running loop. Only the latest
// snapshot is kept if the loop has not picked up the previous one.
func (e *Engine) Reload(next *Snapshot) {
	next = next.normalized()
	for {
		select {
		case e.reloadCh <- next:
			return
		default:
		}
		select {
		case <-e.reloadCh:
		default:
		}
	}
}

// Run executes the initial scan then reconciles on host events, fired
// timers, the periodic tick and reloads until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer e.running.Store(false)
	defer e.sched.Stop()

	interval := e.Snapshot().PeriodicInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.Pass(ctx, TriggerInitial)

	events := e.host.Events()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("reconcile: engine stopped")
			return nil

		case t, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			e.Notify(t)

		case t := <-e.sched.Fired():
			e.Pass(ctx, t)

		case <-ticker.C:
			e.Pass(ctx, TriggerPeriodic)

		case next := <-e.reloadCh:
			e.Reconfigure(ctx, next)
			if next.PeriodicInterval != interval {
				interval = next.PeriodicInterval
				ticker.Reset(interval)
			}
		}
	}
}

// Pass runs one full scan with the current snapshot. A periodic pass
// first invalidates processed roots whose transformed spans are gone.
// Pass must not be called concurrently with Run on hosts that do not
// serialise their own writes.
func (e *Engine) Pass(ctx context.Context, t Trigger) report.Report {
	rep := e.begin(t)
	e.scan(ctx, t, e.Snapshot(), &rep)
	e.finish(ctx, &rep)
	return rep
}

// Reconfigure swaps in next, restores roots transformed under the previous
// snapshot when the transform changed or was disabled, and rescans.
func (e *Engine) Reconfigure(ctx context.Context, next *Snapshot) report.Report {
	next = next.normalized()
	prev := e.snap.Swap(next)

	rep := e.begin(TriggerReload)
	if needsRestore(prev, next) {
		e.restore(ctx, prev, &rep)
	}
	e.scan(ctx, TriggerReload, next, &rep)
	e.finish(ctx, &rep)

	e.logger.Info("reconcile: snapshot reloaded",
		"enabled", next.Enabled,
		"bold_ratio", next.Walk.Transform.BoldRatio,
		"restored", rep.Restored)
	return rep
}

// Restore unwraps every transformed span under the current snapshot's
// roots without rescanning.
func (e *Engine) Restore(ctx context.Context) report.Report {
	rep := e.begin(TriggerManual)
	e.restore(ctx, e.Snapshot(), &rep)
	e.finish(ctx, &rep)
	return rep
}

// InjectFonts asks the host to insert the font stylesheet.
func (e *Engine) InjectFonts(ctx context.Context, id, href string) error {
	if href == "" {
		return nil
	}
	if err := e.host.InjectFonts(ctx, id, href); err != nil {
		return fmt.Errorf("reconcile: inject fonts: %w", err)
	}
	return nil
}

func (e *Engine) begin(t Trigger) report.Report {
	return report.Report{ID: e.newID(), Trigger: t.String(), StartedAt: time.Now()}
}

func (e *Engine) scan(ctx context.Context, t Trigger, snap *Snapshot, rep *report.Report) {
	err := e.host.Pass(ctx, snap.Selector, func(roots []Root) error {
		rep.Roots = len(roots)
		for i, r := range roots {
			if err := e.reconcileRoot(ctx, t, snap, r, rep); err != nil {
				rep.Errors++
				e.logger.Debug("reconcile: root skipped", "index", i, "trigger", t.String(), "error", err)
			}
		}
		return nil
	})
	if err != nil {
		rep.Errors++
		e.logger.Warn("reconcile: scan failed", "trigger", t.String(), "error", err)
	}
}

func (e *Engine) reconcileRoot(ctx context.Context, t Trigger, snap *Snapshot, r Root, rep *report.Report) error {
	marker := snap.Marker()
	marked, err := r.HasMarker(ctx, marker)
	if err != nil {
		return fmt.Errorf("marker: %w", err)
	}
	state := stateOf(marked)

	if t == TriggerPeriodic && state == Processed {
		has, err := r.ContainsTransformed(ctx)
		if err != nil {
			return fmt.Errorf("inspect: %w", err)
		}
		if !has {
			next, _ := Transition(state, ContentReplaced)
			if err := r.ClearMarker(ctx, marker); err != nil {
				return fmt.Errorf("clear marker: %w", err)
			}
			state = next
			rep.Invalidated++
		}
	}

	styled, err := r.ApplyTypography(ctx, snap.Typography)
	if err != nil {
		return fmt.Errorf("typography: %w", err)
	}
	if styled {
		rep.Styled++
	}

	if !snap.Walks() {
		return nil
	}
	if _, ok := Transition(state, Process); !ok {
		return nil
	}

	res, err := r.Process(ctx, snap.Walk)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}
	if res.Outcome == walker.Processed {
		rep.Processed++
	}
	rep.LeavesReplaced += res.Replaced
	rep.Detached += res.Detached
	return nil
}

func (e *Engine) restore(ctx context.Context, snap *Snapshot, rep *report.Report) {
	marker := snap.Marker()
	err := e.host.Pass(ctx, snap.Selector, func(roots []Root) error {
		for i, r := range roots {
			marked, err := r.HasMarker(ctx, marker)
			if err != nil {
				rep.Errors++
				e.logger.Debug("reconcile: restore skipped", "index", i, "error", err)
				continue
			}
			n, err := r.Restore(ctx, marker)
			if err != nil {
				rep.Errors++
				e.logger.Debug("reconcile: restore skipped", "index", i, "error", err)
				continue
			}
			if marked || n > 0 {
				rep.Restored++
			}
		}
		return nil
	})
	if err != nil {
		rep.Errors++
		e.logger.Warn("reconcile: restore failed", "error", err)
	}
}

func (e *Engine) finish(ctx context.Context, rep *report.Report) {
	rep.Duration = time.Since(rep.StartedAt)
	e.record(*rep)

	if !rep.Empty() {
		e.logger.Debug("reconcile: pass",
			"id", rep.ID,
			"trigger", rep.Trigger,
			"roots", rep.Roots,
			"processed", rep.Processed,
			"invalidated", rep.Invalidated,
			"restored", rep.Restored,
			"replaced", rep.LeavesReplaced,
			"duration", rep.Duration)
	}
	if err := e.sink.Send(ctx, *rep); err != nil {
		e.logger.Warn("reconcile: report sink failed", "pass", rep.ID, "error", err)
	}
}

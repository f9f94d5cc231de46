// Package livepage is a reconcile.Host over a live Chrome tab. DOM events
// from CDP drive the mutation trigger and an injected listener reports
// scrolling through a Runtime binding.
//
// Roots are rewritten leaf by leaf. The page reports its text nodes and
// their ancestor chains, eligibility and the transform run in Go, and each
// planned node is swapped for its span in place, so the root element and
// every other node keep their identity and listeners. A root whose text
// moved under the pass stays unmarked and the next trigger finishes it.
package livepage

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/bionic/focusread/internal/reconcile"
)

//go:embed scroll.js
var scrollJS string

const scrollBinding = "__focusread_scroll"

// Page observes and rewrites one rod page.
type Page struct {
	page   *rod.Page
	logger *slog.Logger
	events chan reconcile.Trigger
	resets chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wraps page. Call Start before handing it to an engine.
func New(page *rod.Page, logger *slog.Logger) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	return &Page{
		page:   page,
		logger: logger,
		events: make(chan reconcile.Trigger, 64),
		resets: make(chan struct{}, 1),
	}
}

// Start enables DOM tracking, installs the scroll listener and begins
// forwarding events. It returns once listeners are in place.
func (p *Page) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	if err := (proto.DOMEnable{}).Call(p.page); err != nil {
		return fmt.Errorf("livepage: DOM.enable: %w", err)
	}
	if err := p.track(); err != nil {
		return err
	}

	if err := (proto.RuntimeAddBinding{Name: scrollBinding}).Call(p.page); err != nil {
		p.logger.Warn("livepage: addBinding failed (may already exist)", "error", err)
	}
	if _, err := p.page.EvalOnNewDocument("(" + scrollJS + ")()"); err != nil {
		p.logger.Warn("livepage: scroll listener for new documents", "error", err)
	}
	if _, err := p.page.Eval(scrollJS); err != nil {
		return fmt.Errorf("livepage: install scroll listener: %w", err)
	}

	p.wg.Add(2)
	go p.listen()
	go p.retrack()

	p.logger.Info("livepage: observing", "url", p.url())
	return nil
}

// Stop detaches the listeners and waits for them to exit.
func (p *Page) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// Events implements reconcile.Host.
func (p *Page) Events() <-chan reconcile.Trigger {
	return p.events
}

// track requests the full tree so CDP reports mutations on deep nodes.
func (p *Page) track() error {
	depth := -1
	if _, err := (proto.DOMGetDocument{Depth: &depth, Pierce: true}).Call(p.page); err != nil {
		return fmt.Errorf("livepage: DOM.getDocument: %w", err)
	}
	return nil
}

func (p *Page) url() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *Page) emit(t reconcile.Trigger) {
	select {
	case p.events <- t:
	default:
	}
}

// listen forwards CDP DOM events and binding calls until Stop.
func (p *Page) listen() {
	defer p.wg.Done()

	wait := p.page.Context(p.ctx).EachEvent(
		func(e *proto.DOMChildNodeInserted) { p.emit(reconcile.TriggerMutation) },
		func(e *proto.DOMChildNodeRemoved) { p.emit(reconcile.TriggerMutation) },
		func(e *proto.DOMCharacterDataModified) { p.emit(reconcile.TriggerMutation) },
		func(e *proto.DOMChildNodeCountUpdated) { p.emit(reconcile.TriggerMutation) },
		func(e *proto.DOMDocumentUpdated) {
			p.emit(reconcile.TriggerMutation)
			select {
			case p.resets <- struct{}{}:
			default:
			}
		},
		func(e *proto.RuntimeBindingCalled) {
			if e.Name == scrollBinding {
				p.emit(reconcile.TriggerScroll)
			}
		},
	)
	wait()
}

// retrack re-requests the tree after a document reset, outside the event
// callback.
func (p *Page) retrack() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.resets:
			if err := p.track(); err != nil {
				p.logger.Warn("livepage: retrack after document update", "error", err)
			}
		}
	}
}

// Pass implements reconcile.Host. A live page cannot hold off the host's
// own writes; conflicting rewrites are detected per root instead.
func (p *Page) Pass(ctx context.Context, selector string, fn func([]reconcile.Root) error) error {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return fmt.Errorf("livepage: query %q: %w", selector, err)
	}
	roots := make([]reconcile.Root, len(els))
	for i, el := range els {
		roots[i] = &root{el: el.Context(ctx)}
	}
	return fn(roots)
}

// InjectFonts implements reconcile.Host.
func (p *Page) InjectFonts(ctx context.Context, id, href string) error {
	_, err := p.page.Context(ctx).Eval(`(id, href) => {
		if (document.getElementById(id)) return false;
		const link = document.createElement('link');
		link.id = id;
		link.rel = 'stylesheet';
		link.href = href;
		(document.head || document.documentElement).appendChild(link);
		return true;
	}`, id, href)
	if err != nil {
		return fmt.Errorf("livepage: inject fonts: %w", err)
	}
	return nil
}

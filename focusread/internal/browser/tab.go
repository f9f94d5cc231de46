package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Tab is the page the reader reconciles.
type Tab struct {
	Page    *rod.Page
	PageURL string

	// owned tabs are closed by Close; attached tabs belong to the user.
	owned bool
}

// OpenTab creates a new tab and navigates to pageURL.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	var page *rod.Page
	var err error
	if mgr.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, mgr.cfg.Timeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return &Tab{Page: page, PageURL: pageURL, owned: true}, nil
}

// AttachTab finds an already open tab whose URL starts with prefix. This is
// how the reader joins a signed-in session in a remote Chrome.
func AttachTab(ctx context.Context, mgr *Manager, prefix string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}
	pages, err := b.Context(ctx).Pages()
	if err != nil {
		return nil, fmt.Errorf("browser: list tabs: %w", err)
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if strings.HasPrefix(info.URL, prefix) {
			return &Tab{Page: p, PageURL: info.URL}, nil
		}
	}
	return nil, fmt.Errorf("browser: no open tab matches %q", prefix)
}

// Close closes the tab if this process opened it.
func (t *Tab) Close() error {
	if t.Page != nil && t.owned {
		return t.Page.Close()
	}
	return nil
}

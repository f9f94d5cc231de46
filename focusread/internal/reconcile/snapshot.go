package reconcile

import (
	"time"

	"github.com/hazyhaar/bionic/focusread/internal/eligibility"
	"github.com/hazyhaar/bionic/focusread/internal/typography"
	"github.com/hazyhaar/bionic/focusread/internal/walker"
	"github.com/hazyhaar/bionic/transform"
)

// Defaults for the trigger windows and the root selector.
const (
	DefaultSelector         = ".standard-markdown"
	DefaultMutationWindow   = 100 * time.Millisecond
	DefaultScrollWindow     = 250 * time.Millisecond
	DefaultPeriodicInterval = time.Second
)

// Snapshot is the immutable configuration of one pass. A new Snapshot is
// built on every reload and swapped in whole; passes never see a mix.
type Snapshot struct {
	Selector   string
	Enabled    bool
	Walk       walker.Options
	Typography typography.Settings

	MutationWindow   time.Duration
	ScrollWindow     time.Duration
	PeriodicInterval time.Duration
}

// DefaultSnapshot returns the stock configuration.
func DefaultSnapshot() *Snapshot {
	return &Snapshot{
		Selector: DefaultSelector,
		Enabled:  true,
		Walk: walker.Options{
			Transform: transform.DefaultOptions(),
			Policy:    eligibility.DefaultPolicy(),
			Marker:    walker.DefaultMarker,
		},
		Typography:       typography.Defaults(),
		MutationWindow:   DefaultMutationWindow,
		ScrollWindow:     DefaultScrollWindow,
		PeriodicInterval: DefaultPeriodicInterval,
	}
}

// Walks reports whether a scan may enter roots at all.
func (s *Snapshot) Walks() bool {
	return s.Enabled && !s.Walk.Transform.Identity()
}

// Marker returns the marker class, falling back to the default.
func (s *Snapshot) Marker() string {
	if s.Walk.Marker == "" {
		return walker.DefaultMarker
	}
	return s.Walk.Marker
}

// normalized returns a copy with zero fields filled from the defaults.
func (s *Snapshot) normalized() *Snapshot {
	if s == nil {
		return DefaultSnapshot()
	}
	c := *s
	if c.Selector == "" {
		c.Selector = DefaultSelector
	}
	if c.Walk.Marker == "" {
		c.Walk.Marker = walker.DefaultMarker
	}
	if c.MutationWindow <= 0 {
		c.MutationWindow = DefaultMutationWindow
	}
	if c.ScrollWindow <= 0 {
		c.ScrollWindow = DefaultScrollWindow
	}
	if c.PeriodicInterval <= 0 {
		c.PeriodicInterval = DefaultPeriodicInterval
	}
	return &c
}

// needsRestore reports whether roots transformed under prev must be
// restored before next takes effect.
func needsRestore(prev, next *Snapshot) bool {
	if prev == nil || !prev.Walks() {
		return false
	}
	if !next.Walks() {
		return true
	}
	return prev.Walk != next.Walk || prev.Selector != next.Selector
}

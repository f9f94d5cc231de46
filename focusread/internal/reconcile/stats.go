package reconcile

import (
	"maps"
	"time"

	"github.com/hazyhaar/bionic/focusread/internal/report"
)

// Stats accumulates pass reports over the engine's lifetime.
type Stats struct {
	Passes         uint64            `json:"passes"`
	ByTrigger      map[string]uint64 `json:"by_trigger"`
	Processed      uint64            `json:"processed"`
	Invalidated    uint64            `json:"invalidated"`
	Restored       uint64            `json:"restored"`
	LeavesReplaced uint64            `json:"leaves_replaced"`
	Errors         uint64            `json:"errors"`
	LastPass       time.Time         `json:"last_pass"`
}

// Stats returns a copy of the cumulative counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.stats
	s.ByTrigger = maps.Clone(e.stats.ByTrigger)
	return s
}

func (e *Engine) record(rep report.Report) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.Passes++
	e.stats.ByTrigger[rep.Trigger]++
	e.stats.Processed += uint64(rep.Processed)
	e.stats.Invalidated += uint64(rep.Invalidated)
	e.stats.Restored += uint64(rep.Restored)
	e.stats.LeavesReplaced += uint64(rep.LeavesReplaced)
	e.stats.Errors += uint64(rep.Errors)
	e.stats.LastPass = rep.StartedAt
}

// Package report defines pass reports and the sinks that deliver them.
package report

import (
	"context"
	"time"
)

// Report summarises one reconciliation pass.
type Report struct {
	ID        string        `json:"id"`
	Trigger   string        `json:"trigger"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`

	Roots          int `json:"roots"`
	Styled         int `json:"styled"`
	Processed      int `json:"processed"`
	Invalidated    int `json:"invalidated"`
	Restored       int `json:"restored"`
	LeavesReplaced int `json:"leaves_replaced"`
	Detached       int `json:"detached"`
	Errors         int `json:"errors"`
}

// Empty reports whether the pass changed nothing.
func (r Report) Empty() bool {
	return r.Styled == 0 && r.Processed == 0 && r.Invalidated == 0 &&
		r.Restored == 0 && r.LeavesReplaced == 0 && r.Errors == 0
}

// Sink is the output interface for pass reports.
type Sink interface {
	Send(ctx context.Context, r Report) error
	Close() error
}

// Discard drops every report.
type Discard struct{}

func (Discard) Send(context.Context, Report) error { return nil }
func (Discard) Close() error                       { return nil }

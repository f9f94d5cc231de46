package report

import "context"

// Func is called for each report (in-process, zero serialisation).
type Func func(ctx context.Context, r Report) error

// Callback delivers reports via a Go function call.
type Callback struct {
	fn Func
}

// NewCallback creates a Callback sink. fn may be nil.
func NewCallback(fn Func) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) Send(ctx context.Context, r Report) error {
	if c.fn != nil {
		return c.fn(ctx, r)
	}
	return nil
}

func (c *Callback) Close() error { return nil }

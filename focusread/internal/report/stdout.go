package report

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
)

// Stdout writes reports as JSON lines to an io.Writer (default os.Stdout).
// Passes that changed nothing are skipped unless Verbose is set.
type Stdout struct {
	Verbose bool

	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdout creates a Stdout sink. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{enc: json.NewEncoder(w)}
}

func (s *Stdout) Send(_ context.Context, r Report) error {
	if r.Empty() && !s.Verbose {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(envelope{Type: "pass", Data: r})
}

func (s *Stdout) Close() error { return nil }

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

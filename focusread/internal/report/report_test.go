package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestStdout_SkipsEmptyPasses(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdout(&buf)

	s.Send(context.Background(), Report{ID: "a", Trigger: "periodic", Roots: 3})
	if buf.Len() != 0 {
		t.Fatalf("empty pass written: %q", buf.String())
	}

	s.Send(context.Background(), Report{ID: "b", Trigger: "mutation", Processed: 1, LeavesReplaced: 4})
	var env struct {
		Type string `json:"type"`
		Data Report `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v (%q)", err, buf.String())
	}
	if env.Type != "pass" || env.Data.ID != "b" || env.Data.LeavesReplaced != 4 {
		t.Errorf("envelope: got %+v", env)
	}
}

func TestStdout_Verbose(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdout(&buf)
	s.Verbose = true
	s.Send(context.Background(), Report{ID: "a"})
	if buf.Len() == 0 {
		t.Error("verbose sink dropped an empty pass")
	}
}

func TestRouter_FanOutAndFirstError(t *testing.T) {
	var got []string
	boom := errors.New("boom")
	failing := NewCallback(func(_ context.Context, r Report) error { return boom })
	recording := NewCallback(func(_ context.Context, r Report) error {
		got = append(got, r.ID)
		return nil
	})

	r := NewRouter(nil, failing, recording, Discard{})
	err := r.Send(context.Background(), Report{ID: "p1"})
	if !errors.Is(err, boom) {
		t.Errorf("Send error: got %v, want %v", err, boom)
	}
	if len(got) != 1 || got[0] != "p1" {
		t.Errorf("recording sink: got %v, want [p1]", got)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

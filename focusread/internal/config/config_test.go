package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/bionic/focusread/internal/eligibility"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Selector != ".standard-markdown" || c.Marker != "bionic-processed" {
		t.Errorf("selector/marker: %q %q", c.Selector, c.Marker)
	}
	if c.Debounce.Mutation != 100*time.Millisecond || c.Debounce.Scroll != 250*time.Millisecond ||
		c.Debounce.Periodic != time.Second {
		t.Errorf("debounce: %+v", c.Debounce)
	}
	if c.Fonts.ID != "focus-reader-fonts" {
		t.Errorf("fonts id: %q", c.Fonts.ID)
	}
	p, err := c.Policy()
	if err != nil {
		t.Fatalf("Policy: %v", err)
	}
	if diff := cmp.Diff(eligibility.DefaultSkip, p.Skipped()); diff != "" {
		t.Errorf("default policy (-want +got):\n%s", diff)
	}
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
selector: "main .answer"
skip: [code, script]
short_word_threshold: 2
debounce:
  mutation: 50ms
  periodic: 2s
browser:
  url: https://example.com
  stealth: true
log:
  level: debug
  format: text
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Selector != "main .answer" || c.ShortWordThreshold != 2 {
		t.Errorf("fields: %+v", c)
	}
	if c.Debounce.Mutation != 50*time.Millisecond || c.Debounce.Scroll != 250*time.Millisecond ||
		c.Debounce.Periodic != 2*time.Second {
		t.Errorf("debounce: %+v", c.Debounce)
	}
	p, _ := c.Policy()
	want := []eligibility.Kind{eligibility.Code, eligibility.Script}
	if diff := cmp.Diff(want, p.Skipped()); diff != "" {
		t.Errorf("policy (-want +got):\n%s", diff)
	}
	if got := c.TransformBase(); got.ShortWordThreshold != 2 || got.MinBold != 1 {
		t.Errorf("TransformBase: %+v", got)
	}
}

func TestParse_EmptySkipSkipsNothing(t *testing.T) {
	c, err := Parse([]byte("skip: []\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p, _ := c.Policy()
	if got := p.Skipped(); len(got) != 0 {
		t.Errorf("Skipped: got %v, want none", got)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{
		"skip: [nonsense]\n",
		"log:\n  format: xml\n",
		"selector: [unclosed\n",
	} {
		if _, err := Parse([]byte(src)); err == nil {
			t.Errorf("Parse(%q): expected error", src)
		}
	}
}

func TestWatch_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "focusread.yaml")
	if err := os.WriteFile(path, []byte("selector: .one\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, nil, func(c *Config) { got <- c })
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("selector: .two\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if c.Selector != ".two" {
			t.Errorf("reloaded selector: got %q, want .two", c.Selector)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload delivered")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch: %v", err)
	}
}

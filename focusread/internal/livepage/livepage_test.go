package livepage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/bionic/focusread/internal/browser"
	"github.com/hazyhaar/bionic/focusread/internal/eligibility"
	"github.com/hazyhaar/bionic/focusread/internal/reconcile"
	"github.com/hazyhaar/bionic/focusread/internal/walker"
	"github.com/hazyhaar/bionic/transform"
)

func TestPlan_EligibleLeaves(t *testing.T) {
	s := scan{
		Root: scanElement{Tag: "div", Class: "standard-markdown"},
		Elements: []scanElement{
			{Tag: "p"},
			{Tag: "pre"},
			{Tag: "code"},
			{Tag: "span", Class: transform.SpanClass},
		},
		Leaves: []scanLeaf{
			{Data: "Hello world", Chain: []int{0}},
			{Data: "x = 1", Chain: []int{1}},
			{Data: "fmt.Println", Chain: []int{2, 0}},
			{Data: "already done", Chain: []int{3, 0}},
			{Data: "tail text"},
		},
	}
	opts := walker.Options{Transform: transform.DefaultOptions(), Policy: eligibility.DefaultPolicy()}

	markup, res := plan(s, opts)
	if res.Outcome != walker.Processed || res.Leaves != 2 {
		t.Fatalf("result: %+v", res)
	}
	want := []string{
		transform.Transform("Hello world", opts.Transform),
		"",
		"",
		"",
		transform.Transform("tail text", opts.Transform),
	}
	if diff := cmp.Diff(want, markup); diff != "" {
		t.Errorf("markup (-want +got):\n%s", diff)
	}
	if !strings.Contains(markup[0], transform.EmphasisClass) {
		t.Errorf("markup[0] not emphasised: %q", markup[0])
	}
}

func TestPlan_RootOutcomes(t *testing.T) {
	opts := walker.Options{Policy: eligibility.DefaultPolicy(), Marker: "done"}
	tests := []struct {
		name string
		root scanElement
		want walker.Outcome
	}{
		{"marked", scanElement{Tag: "div", Class: "a done"}, walker.AlreadyProcessed},
		{"skip kind", scanElement{Tag: "pre"}, walker.SkippedRoot},
		{"prose", scanElement{Tag: "article"}, walker.Processed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scan{Root: tt.root, Leaves: []scanLeaf{{Data: "some words"}}}
			_, res := plan(s, opts)
			if res.Outcome != tt.want {
				t.Errorf("outcome: got %v, want %v", res.Outcome, tt.want)
			}
		})
	}
}

func TestPlan_BadChainIgnored(t *testing.T) {
	s := scan{
		Root:   scanElement{Tag: "div"},
		Leaves: []scanLeaf{{Data: "orphan words", Chain: []int{4}}},
	}
	markup, res := plan(s, walker.Options{Transform: transform.DefaultOptions(), Policy: eligibility.DefaultPolicy()})
	if res.Leaves != 0 || markup[0] != "" {
		t.Errorf("got leaves=%d markup=%q, want none", res.Leaves, markup[0])
	}
}

// TestPage_Chrome needs a local Chrome; set FOCUSREAD_BROWSER_TESTS=1.
func TestPage_Chrome(t *testing.T) {
	if os.Getenv("FOCUSREAD_BROWSER_TESTS") == "" {
		t.Skip("FOCUSREAD_BROWSER_TESTS not set")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr := browser.NewManager(browser.Config{Headless: true})
	if _, err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Close()

	tab, err := browser.OpenTab(ctx, mgr, "about:blank")
	if err != nil {
		t.Fatalf("OpenTab: %v", err)
	}
	defer tab.Close()
	if err := tab.Page.SetDocumentContent(`<html><head></head><body>
<div class="standard-markdown"><p>Hello world</p><pre>x = 1</pre></div></body></html>`); err != nil {
		t.Fatalf("SetDocumentContent: %v", err)
	}

	p := New(tab.Page, nil)
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Page.Start: %v", err)
	}
	defer p.Stop()

	e := reconcile.New(reconcile.Config{Host: p}, reconcile.DefaultSnapshot())
	if err := e.InjectFonts(ctx, "focus-reader-fonts", "https://fonts.example/css"); err != nil {
		t.Fatalf("InjectFonts: %v", err)
	}
	if _, err := tab.Page.Eval(`() => { window.__para = document.querySelector('.standard-markdown p'); }`); err != nil {
		t.Fatal(err)
	}
	rep := e.Pass(ctx, reconcile.TriggerInitial)
	if rep.Processed != 1 || rep.LeavesReplaced != 1 {
		t.Fatalf("report: %+v", rep)
	}

	res, err := tab.Page.Eval(`() => document.querySelector('.standard-markdown').outerHTML`)
	if err != nil {
		t.Fatal(err)
	}
	out := res.Value.Str()
	for _, want := range []string{"bionic-processed", `class="bionic-text"`, "<pre>x = 1</pre>", "line-height"} {
		if !strings.Contains(out, want) {
			t.Errorf("root missing %q: %s", want, out)
		}
	}

	same, err := tab.Page.Eval(`() => window.__para === document.querySelector('.standard-markdown p') && window.__para.isConnected`)
	if err != nil {
		t.Fatal(err)
	}
	if !same.Value.Bool() {
		t.Error("paragraph element replaced; want identity kept")
	}

	if again := e.Pass(ctx, reconcile.TriggerMutation); !again.Empty() {
		t.Errorf("second pass changed something: %+v", again)
	}

	restored := e.Restore(ctx)
	if restored.Restored != 1 {
		t.Fatalf("restore report: %+v", restored)
	}
	res, err = tab.Page.Eval(`() => { const p = document.querySelector('.standard-markdown p'); return {same: p === window.__para, html: p.innerHTML}; }`)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Value.Get("same").Bool() || res.Value.Get("html").Str() != "Hello world" {
		t.Errorf("after restore: %s", res.Value.String())
	}
}

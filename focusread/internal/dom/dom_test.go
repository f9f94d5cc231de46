package dom

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/hazyhaar/bionic/focusread/internal/reconcile"
	"github.com/hazyhaar/bionic/focusread/internal/typography"
	"github.com/hazyhaar/bionic/focusread/internal/walker"
)

const page = `<html><head><title>t</title></head><body>
<div class="standard-markdown"><p>first answer</p></div>
<div class="sidebar"><p>not a root</p></div>
<div class="standard-markdown"><p>second answer</p></div>
</body></html>`

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	d, err := ParseString(src)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return d
}

func TestPass_RootsInDocumentOrder(t *testing.T) {
	d := mustParse(t, page)

	var texts []string
	err := d.Pass(context.Background(), ".standard-markdown", func(roots []reconcile.Root) error {
		for _, r := range roots {
			texts = append(texts, walker.TextContent(r.(root).n))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Pass: %v", err)
	}
	want := []string{"first answer", "second answer"}
	if len(texts) != len(want) {
		t.Fatalf("roots: got %v, want %v", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("root %d: got %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestPass_BadSelector(t *testing.T) {
	d := mustParse(t, page)
	err := d.Pass(context.Background(), "div[data-x", func([]reconcile.Root) error { return nil })
	if err == nil {
		t.Error("Pass: want error for unsupported selector")
	}
}

func TestRoot_Operations(t *testing.T) {
	d := mustParse(t, page)
	ctx := context.Background()
	opts := reconcile.DefaultSnapshot().Walk

	err := d.Pass(ctx, ".standard-markdown", func(roots []reconcile.Root) error {
		r := roots[0]
		if ok, _ := r.HasMarker(ctx, opts.Marker); ok {
			t.Error("fresh root already marked")
		}
		if styled, _ := r.ApplyTypography(ctx, typography.Defaults()); !styled {
			t.Error("ApplyTypography: want changed")
		}
		res, _ := r.Process(ctx, opts)
		if res.Outcome != walker.Processed || res.Replaced != 1 {
			t.Errorf("Process: got %+v", res)
		}
		if ok, _ := r.ContainsTransformed(ctx); !ok {
			t.Error("ContainsTransformed: want true after Process")
		}
		if n, _ := r.Restore(ctx, opts.Marker); n != 1 {
			t.Errorf("Restore: got %d spans, want 1", n)
		}
		if ok, _ := r.HasMarker(ctx, opts.Marker); ok {
			t.Error("marker survived Restore")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Pass: %v", err)
	}
}

func TestInjectFonts_Once(t *testing.T) {
	d := mustParse(t, page)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := d.InjectFonts(ctx, "focus-reader-fonts", "https://fonts.example/css"); err != nil {
			t.Fatalf("InjectFonts: %v", err)
		}
	}
	if got := strings.Count(d.String(), `id="focus-reader-fonts"`); got != 1 {
		t.Errorf("font links: got %d, want 1", got)
	}
}

func TestMutate_SignalsMutation(t *testing.T) {
	d := mustParse(t, page)
	d.Mutate(func(doc *html.Node) {})
	d.Scroll()

	if got := <-d.Events(); got != reconcile.TriggerMutation {
		t.Errorf("first event: got %v, want mutation", got)
	}
	if got := <-d.Events(); got != reconcile.TriggerScroll {
		t.Errorf("second event: got %v, want scroll", got)
	}
}

func TestMutate_DoesNotBlockWhenUndrained(t *testing.T) {
	d := mustParse(t, page)
	for i := 0; i < 500; i++ {
		d.Mutate(func(*html.Node) {})
	}
}

package eligibility

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func parseBody(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<html><body>" + src + "</body></html>"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return body
}

func findText(root *html.Node, text string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.TextNode && strings.Contains(n.Data, text) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

func TestClassify(t *testing.T) {
	tests := []struct {
		src  string
		want Kind
	}{
		{"<p>x</p>", Prose},
		{"<code>x</code>", Code},
		{"<pre>x</pre>", Preformatted},
		{"<script>x</script>", Script},
		{"<style>x</style>", Style},
		{"<textarea>x</textarea>", FormInput},
		{"<input value=x>", FormInput},
		{"<svg><text>x</text></svg>", Graphics},
		{"<math><mi>x</mi></math>", Math},
		{`<span class="bionic-text">x</span>`, Transformed},
		{`<b class="bionic-bold">x</b>`, Emphasis},
		{`<b class="other bionic-bold">x</b>`, Emphasis},
		{`<b class="bionic-boldish">x</b>`, Prose},
	}
	for _, tt := range tests {
		body := parseBody(t, tt.src)
		if got := Classify(body.FirstChild); got != tt.want {
			t.Errorf("Classify(%s): got %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestParseKind_AllNames(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k.String(), err)
		}
		if got != k {
			t.Errorf("ParseKind(%q): got %v, want %v", k.String(), got, k)
		}
	}
	if _, err := ParseKind("blink"); err == nil {
		t.Error("ParseKind(blink): expected error")
	}
}

func TestPolicy_DefaultSkips(t *testing.T) {
	p := DefaultPolicy()
	for _, k := range Kinds() {
		want := false
		for _, s := range DefaultSkip {
			if s == k {
				want = true
			}
		}
		if got := p.Skips(k); got != want {
			t.Errorf("Skips(%v): got %v, want %v", k, got, want)
		}
	}
	if p.Skips(Kind(99)) {
		t.Error("Skips(out of range) should be false")
	}
}

// TestPolicy_Decide enumerates every single-ancestor configuration.
func TestPolicy_Decide(t *testing.T) {
	p := DefaultPolicy()
	for _, k := range Kinds() {
		want := !k.Marker() && !p.Skips(k)
		if got := p.Decide([]Kind{Prose, k, Prose}, false); got != want {
			t.Errorf("Decide([prose %v prose]): got %v, want %v", k, got, want)
		}
		if p.Decide([]Kind{k}, true) {
			t.Errorf("Decide(blank, %v): blank text must be ineligible", k)
		}
	}
	if !p.Decide(nil, false) {
		t.Error("Decide(no ancestors): want eligible")
	}
}

func TestEligible(t *testing.T) {
	body := parseBody(t, `<div><p>plain words</p><pre>skip me</pre>`+
		`<p><code>inline code</code> after code</p>`+
		`<span class="bionic-text">done <b class="bionic-bold">al</b>ready</span>`+
		`<p>   </p></div>`)
	root := body.FirstChild
	p := DefaultPolicy()

	tests := []struct {
		text string
		want bool
	}{
		{"plain words", true},
		{"skip me", false},
		{"inline code", false},
		{"after code", true},
		{"done", false},
		{"al", false},
		{"ready", false},
	}
	for _, tt := range tests {
		n := findText(root, tt.text)
		if n == nil {
			t.Fatalf("text %q not found", tt.text)
		}
		if got := p.Eligible(n, root); got != tt.want {
			t.Errorf("Eligible(%q): got %v, want %v", tt.text, got, tt.want)
		}
	}

	blank := root.LastChild.FirstChild
	if p.Eligible(blank, root) {
		t.Error("whitespace-only leaf must be ineligible")
	}
}

func TestEligible_RootItselfNotConsidered(t *testing.T) {
	body := parseBody(t, `<pre><span>inside</span></pre>`)
	pre := body.FirstChild
	n := findText(pre, "inside")
	// The ancestor walk stops before root, so a skip-kind root does not
	// make its own leaves ineligible; the walker refuses such roots earlier.
	if !DefaultPolicy().Eligible(n, pre) {
		t.Error("Eligible: root must not be part of the ancestor walk")
	}
	if !DefaultPolicy().IsSkippable(pre) {
		t.Error("IsSkippable(pre): want true")
	}
}

func TestIsAlreadyProcessedAncestor(t *testing.T) {
	body := parseBody(t, `<div><span class="bionic-text"><b class="bionic-bold">He</b>llo</span><p>fresh</p></div>`)
	root := body.FirstChild
	p := DefaultPolicy()

	if !p.IsAlreadyProcessedAncestor(findText(root, "He"), root) {
		t.Error("text inside emphasis: want processed ancestor")
	}
	if !p.IsAlreadyProcessedAncestor(findText(root, "llo"), root) {
		t.Error("text inside transformed span: want processed ancestor")
	}
	if p.IsAlreadyProcessedAncestor(findText(root, "fresh"), root) {
		t.Error("fresh text: want no processed ancestor")
	}
}

func TestNewPolicy_Custom(t *testing.T) {
	p := NewPolicy(Code)
	if !p.Skips(Code) || p.Skips(Preformatted) {
		t.Errorf("custom policy: got %v", p.Skipped())
	}
}

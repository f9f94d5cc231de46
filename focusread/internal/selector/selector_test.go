package selector

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

const page = `<html><body>
<main id="chat">
  <div class="message"><div class="standard-markdown" data-id="1"><p>one</p></div></div>
  <div class="message user"><div class="standard-markdown" data-id="2"><p>two</p></div></div>
</main>
<aside><div class="standard-markdown" data-id="3"><p>three</p></div></aside>
</body></html>`

func parse(t *testing.T) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func ids(nodes []*html.Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, getAttr(n, "data-id"))
	}
	return out
}

func TestQueryAll(t *testing.T) {
	doc := parse(t)
	tests := []struct {
		sel  string
		want string
	}{
		{".standard-markdown", "1,2,3"},
		{"div.standard-markdown", "1,2,3"},
		{"main .standard-markdown", "1,2"},
		{"#chat .standard-markdown", "1,2"},
		{".message.user .standard-markdown", "2"},
		{"aside .standard-markdown, .user .standard-markdown", "2,3"},
		{"[data-id=3]", "3"},
		{"div[data-id]", "1,2,3"},
		{"section .standard-markdown", ""},
	}
	for _, tt := range tests {
		s, err := Compile(tt.sel)
		if err != nil {
			t.Fatalf("Compile(%q): %v", tt.sel, err)
		}
		if got := strings.Join(ids(s.QueryAll(doc)), ","); got != tt.want {
			t.Errorf("QueryAll(%q): got %q, want %q", tt.sel, got, tt.want)
		}
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, sel := range []string{"", "a,", "div[", "div..x", "[=x]"} {
		if _, err := Compile(sel); err == nil {
			t.Errorf("Compile(%q): expected error", sel)
		}
	}
}

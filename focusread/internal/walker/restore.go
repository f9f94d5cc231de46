package walker

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/bionic/transform"
)

// ContainsTransformed reports whether any transformed span lies under root.
func ContainsTransformed(root *html.Node) bool {
	found := false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil && !found; c = c.NextSibling {
			if HasClass(c, transform.SpanClass) {
				found = true
				return
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return found
}

// RestoreRoot replaces every transformed span under root with a plain text
// node holding the span's text, then clears the processed marker. The span
// text is exactly the text of the leaf it replaced, so a restored root
// renders as it did before ProcessRoot. Returns the number of spans removed.
func RestoreRoot(root *html.Node, marker string) int {
	if root == nil {
		return 0
	}
	if marker == "" {
		marker = DefaultMarker
	}

	var spans []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if HasClass(c, transform.SpanClass) {
				spans = append(spans, c)
				continue
			}
			walk(c)
		}
	}
	walk(root)

	for _, span := range spans {
		parent := span.Parent
		if parent == nil {
			continue
		}
		text := &html.Node{Type: html.TextNode, Data: TextContent(span)}
		parent.InsertBefore(text, span)
		parent.RemoveChild(span)
	}

	RemoveClass(root, marker)
	return len(spans)
}

// TextContent concatenates the character data under n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Package selector matches the response-root selector against an x/net/html
// tree. It supports the subset of CSS the host contract needs:
//
//   - tag: "article", "div"
//   - .class: ".standard-markdown"
//   - #id: "#main"
//   - tag.class, tag#id, .a.b
//   - [attr], [attr=val], tag[attr=val]
//   - descendant combinator: "main .standard-markdown"
//   - selector groups: "article, .standard-markdown"
package selector

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Selector is a compiled selector group.
type Selector struct {
	src    string
	groups [][]simple
}

type simple struct {
	tag     string
	id      string
	classes []string
	attrKey string
	attrVal string
	hasVal  bool
}

// Compile parses a selector group.
func Compile(src string) (*Selector, error) {
	s := &Selector{src: src}
	for _, part := range strings.Split(src, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			return nil, fmt.Errorf("selector: empty selector in %q", src)
		}
		chain := make([]simple, 0, len(fields))
		for _, f := range fields {
			m, err := parseSimple(f)
			if err != nil {
				return nil, fmt.Errorf("selector: %q: %w", src, err)
			}
			chain = append(chain, m)
		}
		s.groups = append(s.groups, chain)
	}
	return s, nil
}

// MustCompile is Compile that panics on error. For package-level defaults.
func MustCompile(src string) *Selector {
	s, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Selector) String() string { return s.src }

// parseSimple parses "tag.class#id[attr=val]".
func parseSimple(sel string) (simple, error) {
	var m simple

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		if !strings.HasSuffix(sel, "]") {
			return m, fmt.Errorf("unterminated attribute selector %q", sel)
		}
		attrPart := sel[idx+1 : len(sel)-1]
		sel = sel[:idx]
		if eq := strings.IndexByte(attrPart, '='); eq >= 0 {
			m.attrKey = attrPart[:eq]
			m.attrVal = strings.Trim(attrPart[eq+1:], `"'`)
			m.hasVal = true
		} else {
			m.attrKey = attrPart
		}
		if m.attrKey == "" {
			return m, fmt.Errorf("empty attribute name in %q", sel)
		}
	}

	if idx := strings.IndexByte(sel, '#'); idx >= 0 {
		m.id = sel[idx+1:]
		sel = sel[:idx]
		if dot := strings.IndexByte(m.id, '.'); dot >= 0 {
			sel += m.id[dot:]
			m.id = m.id[:dot]
		}
	}

	if idx := strings.IndexByte(sel, '.'); idx >= 0 {
		for _, c := range strings.Split(sel[idx+1:], ".") {
			if c == "" {
				return m, fmt.Errorf("empty class name")
			}
			m.classes = append(m.classes, c)
		}
		sel = sel[:idx]
	}

	m.tag = strings.ToLower(sel)
	return m, nil
}

// Match reports whether n matches the selector. Descendant parts are
// checked against n's ancestors.
func (s *Selector) Match(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, chain := range s.groups {
		if matchChain(n, chain) {
			return true
		}
	}
	return false
}

func matchChain(n *html.Node, chain []simple) bool {
	last := len(chain) - 1
	if !chain[last].match(n) {
		return false
	}
	i := last - 1
	for a := n.Parent; a != nil && i >= 0; a = a.Parent {
		if chain[i].match(a) {
			i--
		}
	}
	return i < 0
}

func (m simple) match(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if m.tag != "" && m.tag != "*" && n.Data != m.tag {
		return false
	}
	if m.id != "" && getAttr(n, "id") != m.id {
		return false
	}
	if len(m.classes) > 0 {
		have := strings.Fields(getAttr(n, "class"))
		for _, want := range m.classes {
			if !contains(have, want) {
				return false
			}
		}
	}
	if m.attrKey != "" {
		if !hasAttr(n, m.attrKey) {
			return false
		}
		if m.hasVal && getAttr(n, m.attrKey) != m.attrVal {
			return false
		}
	}
	return true
}

// QueryAll returns every element under root (root included) that matches,
// in document order.
func (s *Selector) QueryAll(root *html.Node) []*html.Node {
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if s.Match(n) {
			results = append(results, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return results
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Package dom is an in-memory reconcile.Host over an x/net/html tree.
// One mutex serialises host writes and engine passes.
package dom

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/bionic/focusread/internal/reconcile"
	"github.com/hazyhaar/bionic/focusread/internal/selector"
	"github.com/hazyhaar/bionic/focusread/internal/typography"
	"github.com/hazyhaar/bionic/focusread/internal/walker"
)

// Document is a parsed HTML document that can be mutated and scanned.
type Document struct {
	mu     sync.Mutex
	doc    *html.Node
	events chan reconcile.Trigger
	sels   map[string]*selector.Selector
}

// New wraps an already parsed document node.
func New(doc *html.Node) *Document {
	return &Document{
		doc:    doc,
		events: make(chan reconcile.Trigger, 64),
		sels:   make(map[string]*selector.Selector),
	}
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return New(doc), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Events implements reconcile.Host.
func (d *Document) Events() <-chan reconcile.Trigger {
	return d.events
}

// Mutate runs fn with exclusive access to the tree, then signals a
// mutation trigger.
func (d *Document) Mutate(fn func(doc *html.Node)) {
	d.mu.Lock()
	fn(d.doc)
	d.mu.Unlock()
	d.emit(reconcile.TriggerMutation)
}

// Scroll signals a scroll trigger.
func (d *Document) Scroll() {
	d.emit(reconcile.TriggerScroll)
}

// View runs fn with exclusive access to the tree without signalling.
func (d *Document) View(fn func(doc *html.Node)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.doc)
}

func (d *Document) emit(t reconcile.Trigger) {
	select {
	case d.events <- t:
	default:
	}
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.doc)
}

// String renders the document, or returns the render error text.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return err.Error()
	}
	return buf.String()
}

// Pass implements reconcile.Host.
func (d *Document) Pass(_ context.Context, sel string, fn func([]reconcile.Root) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.compile(sel)
	if err != nil {
		return err
	}
	nodes := s.QueryAll(d.doc)
	roots := make([]reconcile.Root, len(nodes))
	for i, n := range nodes {
		roots[i] = root{n}
	}
	return fn(roots)
}

func (d *Document) compile(sel string) (*selector.Selector, error) {
	if s, ok := d.sels[sel]; ok {
		return s, nil
	}
	s, err := selector.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("dom: selector %q: %w", sel, err)
	}
	d.sels[sel] = s
	return s, nil
}

// InjectFonts implements reconcile.Host.
func (d *Document) InjectFonts(_ context.Context, id, href string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if byID(d.doc, id) != nil {
		return nil
	}
	head := findAtom(d.doc, atom.Head)
	if head == nil {
		return fmt.Errorf("dom: document has no head")
	}
	head.AppendChild(&html.Node{
		Type:     html.ElementNode,
		Data:     "link",
		DataAtom: atom.Link,
		Attr: []html.Attribute{
			{Key: "id", Val: id},
			{Key: "rel", Val: "stylesheet"},
			{Key: "href", Val: href},
		},
	})
	return nil
}

func byID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := byID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func findAtom(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findAtom(c, a); found != nil {
			return found
		}
	}
	return nil
}

// root adapts an element to reconcile.Root. It is only valid while the
// Document lock is held by Pass.
type root struct {
	n *html.Node
}

func (r root) HasMarker(_ context.Context, marker string) (bool, error) {
	return walker.HasClass(r.n, marker), nil
}

func (r root) ContainsTransformed(context.Context) (bool, error) {
	return walker.ContainsTransformed(r.n), nil
}

func (r root) ClearMarker(_ context.Context, marker string) error {
	walker.RemoveClass(r.n, marker)
	return nil
}

func (r root) ApplyTypography(_ context.Context, s typography.Settings) (bool, error) {
	return typography.Apply(r.n, s), nil
}

func (r root) Process(_ context.Context, opts walker.Options) (walker.Result, error) {
	return walker.ProcessRoot(r.n, opts), nil
}

func (r root) Restore(_ context.Context, marker string) (int, error) {
	return walker.RestoreRoot(r.n, marker), nil
}

// Package walker rewrites the eligible text leaves of one response root into
// transformed spans and marks the root processed.
//
// Leaves are collected before the tree is touched, so replacing a leaf can
// never skip or duplicate a later one. The processed marker is the only
// memory the walker keeps: a second ProcessRoot on an unmodified root is a
// no-op.
package walker

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/bionic/focusread/internal/eligibility"
	"github.com/hazyhaar/bionic/transform"
)

// DefaultMarker is the class that marks a processed root.
const DefaultMarker = "bionic-processed"

// Options is the per-pass input of the walker.
type Options struct {
	Transform transform.Options
	Policy    eligibility.Policy
	// Marker is the processed-root class. Empty means DefaultMarker.
	Marker string
}

func (o Options) marker() string {
	if o.Marker == "" {
		return DefaultMarker
	}
	return o.Marker
}

// Outcome says why ProcessRoot stopped.
type Outcome int

const (
	Processed        Outcome = iota // root was walked and marked
	AlreadyProcessed                // marker present, nothing done
	SkippedRoot                     // root is itself a skip-kind element
)

func (o Outcome) String() string {
	switch o {
	case Processed:
		return "processed"
	case AlreadyProcessed:
		return "already_processed"
	case SkippedRoot:
		return "skipped_root"
	default:
		return "unknown"
	}
}

// Result summarises one ProcessRoot call.
type Result struct {
	Outcome  Outcome `json:"outcome"`
	Leaves   int     `json:"leaves"`   // eligible leaves enumerated
	Replaced int     `json:"replaced"` // leaves replaced by a transformed span
	Detached int     `json:"detached"` // leaves that lost their parent before replacement
}

// ProcessRoot transforms every eligible text leaf under root.
func ProcessRoot(root *html.Node, opts Options) Result {
	marker := opts.marker()
	if HasClass(root, marker) {
		return Result{Outcome: AlreadyProcessed}
	}
	if opts.Policy.IsSkippable(root) {
		return Result{Outcome: SkippedRoot}
	}

	leaves := Leaves(root, opts.Policy)
	res := Result{Outcome: Processed, Leaves: len(leaves)}
	for _, leaf := range leaves {
		switch replaceLeaf(leaf, opts.Transform) {
		case replaced:
			res.Replaced++
		case detached:
			res.Detached++
		}
	}

	AddClass(root, marker)
	return res
}

// Leaves enumerates the eligible text leaves under root in document order.
// Skip-kind and previously transformed subtrees are pruned, not scanned.
func Leaves(root *html.Node, policy eligibility.Policy) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if policy.Eligible(c, root) {
					out = append(out, c)
				}
			case html.ElementNode:
				k := eligibility.Classify(c)
				if k.Marker() || policy.Skips(k) {
					continue
				}
				walk(c)
			}
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

type replaceOutcome int

const (
	unchanged replaceOutcome = iota
	replaced
	detached
)

var spanContext = &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span}

func replaceLeaf(leaf *html.Node, opts transform.Options) replaceOutcome {
	parent := leaf.Parent
	if parent == nil {
		return detached
	}

	out := transform.Transform(leaf.Data, opts)
	if out == leaf.Data {
		return unchanged
	}

	span := NewSpan(out)
	if span == nil {
		return unchanged
	}
	parent.InsertBefore(span, leaf)
	parent.RemoveChild(leaf)
	return replaced
}

// NewSpan builds a transformed span holding the parsed markup. It returns
// nil when the markup cannot be parsed.
func NewSpan(markup string) *html.Node {
	nodes, err := html.ParseFragment(strings.NewReader(markup), spanContext)
	if err != nil {
		return nil
	}
	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: "class", Val: transform.SpanClass}},
	}
	for _, n := range nodes {
		span.AppendChild(n)
	}
	return span
}

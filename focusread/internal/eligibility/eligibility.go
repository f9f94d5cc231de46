// Package eligibility decides which parts of a response root the tree
// walker may enter. Elements are reduced to a finite Kind before any policy
// decision, so every rule can be tested exhaustively without a live tree.
package eligibility

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/bionic/transform"
)

// Kind is the container category of an element.
type Kind int

const (
	Prose        Kind = iota // any element not listed below
	Code                     // <code>
	Preformatted             // <pre>
	Script                   // <script>, <noscript>
	Style                    // <style>
	FormInput                // <textarea>, <input>, <select>, <option>
	Graphics                 // <svg>, <canvas>
	Math                     // <math>
	Transformed              // a transformed span produced by the walker
	Emphasis                 // an emphasis container produced by the transform
	numKinds
)

var kindNames = [numKinds]string{
	Prose:        "prose",
	Code:         "code",
	Preformatted: "preformatted",
	Script:       "script",
	Style:        "style",
	FormInput:    "form_input",
	Graphics:     "graphics",
	Math:         "math",
	Transformed:  "transformed",
	Emphasis:     "emphasis",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds returns every defined Kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind maps a configuration name back to its Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return Prose, fmt.Errorf("eligibility: unknown kind %q", name)
}

// Marker reports whether k identifies output of a previous transform.
func (k Kind) Marker() bool {
	return k == Transformed || k == Emphasis
}

// Classify reduces an element node to its Kind. Non-element nodes are Prose.
func Classify(n *html.Node) Kind {
	if n == nil || n.Type != html.ElementNode {
		return Prose
	}
	if HasClass(n, transform.SpanClass) {
		return Transformed
	}
	if HasClass(n, transform.EmphasisClass) {
		return Emphasis
	}

	switch n.DataAtom {
	case atom.Code:
		return Code
	case atom.Pre:
		return Preformatted
	case atom.Script, atom.Noscript:
		return Script
	case atom.Style:
		return Style
	case atom.Textarea, atom.Input, atom.Select, atom.Option:
		return FormInput
	case atom.Svg, atom.Canvas:
		return Graphics
	case atom.Math:
		return Math
	}

	// Foreign content (svg/math subtrees) may carry no atom.
	switch strings.ToLower(n.Data) {
	case "svg":
		return Graphics
	case "math":
		return Math
	}
	return Prose
}

// HasClass reports whether n's class attribute contains class.
func HasClass(n *html.Node, class string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

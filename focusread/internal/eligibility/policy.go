package eligibility

import (
	"strings"

	"golang.org/x/net/html"
)

// Policy is the set of Kinds the walker never enters.
type Policy struct {
	skip [numKinds]bool
}

// DefaultSkip lists the Kinds whose content must never be rewritten:
// transforming them would corrupt code or break interactive controls.
var DefaultSkip = []Kind{Code, Preformatted, Script, Style, FormInput, Graphics, Math}

// NewPolicy builds a Policy skipping the given kinds.
func NewPolicy(kinds ...Kind) Policy {
	var p Policy
	for _, k := range kinds {
		if k >= 0 && k < numKinds {
			p.skip[k] = true
		}
	}
	return p
}

// DefaultPolicy skips DefaultSkip.
func DefaultPolicy() Policy {
	return NewPolicy(DefaultSkip...)
}

// Skips reports whether elements of kind k are skipped.
func (p Policy) Skips(k Kind) bool {
	if k < 0 || k >= numKinds {
		return false
	}
	return p.skip[k]
}

// Skipped returns the skipped kinds in declaration order.
func (p Policy) Skipped() []Kind {
	var out []Kind
	for k := Kind(0); k < numKinds; k++ {
		if p.skip[k] {
			out = append(out, k)
		}
	}
	return out
}

// IsSkippable reports whether el must never be entered.
func (p Policy) IsSkippable(el *html.Node) bool {
	if el == nil || el.Type != html.ElementNode {
		return false
	}
	return p.Skips(Classify(el))
}

// IsAlreadyProcessedAncestor reports whether any ancestor of n, up to but
// not including root, is a transformed span or an emphasis container.
func (p Policy) IsAlreadyProcessedAncestor(n, root *html.Node) bool {
	for a := n.Parent; a != nil && a != root; a = a.Parent {
		if Classify(a).Marker() {
			return true
		}
	}
	return false
}

// Eligible reports whether the text node n may be transformed during a
// walk rooted at root.
func (p Policy) Eligible(n, root *html.Node) bool {
	if n == nil || n.Type != html.TextNode {
		return false
	}
	if strings.TrimSpace(n.Data) == "" {
		return false
	}
	for a := n.Parent; a != nil && a != root; a = a.Parent {
		k := Classify(a)
		if k.Marker() || p.Skips(k) {
			return false
		}
	}
	return true
}

// Decide is the pure form of the ancestor rule: given the kinds of every
// ancestor between a text leaf and the scan root, may the leaf be transformed?
func (p Policy) Decide(ancestors []Kind, blank bool) bool {
	if blank {
		return false
	}
	for _, k := range ancestors {
		if k.Marker() || p.Skips(k) {
			return false
		}
	}
	return true
}

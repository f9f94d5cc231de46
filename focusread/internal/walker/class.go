package walker

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/bionic/focusread/internal/eligibility"
)

// HasClass reports whether n carries class.
func HasClass(n *html.Node, class string) bool {
	return eligibility.HasClass(n, class)
}

// AddClass appends class to n's class attribute unless already present.
func AddClass(n *html.Node, class string) {
	if n == nil || n.Type != html.ElementNode || HasClass(n, class) {
		return
	}
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == "class" {
			if strings.TrimSpace(a.Val) == "" {
				n.Attr[i].Val = class
			} else {
				n.Attr[i].Val = a.Val + " " + class
			}
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
}

// RemoveClass drops class from n's class attribute.
func RemoveClass(n *html.Node, class string) {
	if n == nil || n.Type != html.ElementNode {
		return
	}
	for i, a := range n.Attr {
		if a.Namespace != "" || a.Key != "class" {
			continue
		}
		fields := strings.Fields(a.Val)
		kept := fields[:0]
		for _, f := range fields {
			if f != class {
				kept = append(kept, f)
			}
		}
		n.Attr[i].Val = strings.Join(kept, " ")
		return
	}
}

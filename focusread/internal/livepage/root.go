package livepage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/bionic/focusread/internal/eligibility"
	"github.com/hazyhaar/bionic/focusread/internal/typography"
	"github.com/hazyhaar/bionic/focusread/internal/walker"
	"github.com/hazyhaar/bionic/transform"
)

// ErrRootChanged is returned when the host rewrote part of a root between
// the collect and the apply step of a pass. Leaves that were still intact
// are replaced; the root stays unmarked so the next trigger finishes it.
var ErrRootChanged = errors.New("livepage: root changed during pass")

type root struct {
	el *rod.Element
}

func (r *root) HasMarker(_ context.Context, marker string) (bool, error) {
	res, err := r.el.Eval(`(m) => this.classList.contains(m)`, marker)
	if err != nil {
		return false, fmt.Errorf("livepage: marker: %w", err)
	}
	return res.Value.Bool(), nil
}

func (r *root) ContainsTransformed(context.Context) (bool, error) {
	res, err := r.el.Eval(`(c) => this.querySelector('span.' + c) !== null`, transform.SpanClass)
	if err != nil {
		return false, fmt.Errorf("livepage: inspect: %w", err)
	}
	return res.Value.Bool(), nil
}

func (r *root) ClearMarker(_ context.Context, marker string) error {
	if _, err := r.el.Eval(`(m) => this.classList.remove(m)`, marker); err != nil {
		return fmt.Errorf("livepage: clear marker: %w", err)
	}
	return nil
}

// ApplyTypography merges the declarations into the style attribute and
// writes it back only when it changed, so a steady page produces no
// attribute mutations.
func (r *root) ApplyTypography(_ context.Context, s typography.Settings) (bool, error) {
	res, err := r.el.Eval(`() => this.getAttribute('style') || ''`)
	if err != nil {
		return false, fmt.Errorf("livepage: read style: %w", err)
	}
	current := res.Value.Str()
	merged := s.Style(current)
	if merged == current {
		return false, nil
	}
	if _, err := r.el.Eval(`(s) => this.setAttribute('style', s)`, merged); err != nil {
		return false, fmt.Errorf("livepage: write style: %w", err)
	}
	return true, nil
}

// collectJS lists every non-blank text node under the root with the chain
// of elements between it and the root. The nodes themselves stay on the
// root until applyJS picks them up.
const collectJS = `() => {
	const elements = [], index = new Map(), leaves = [], nodes = [];
	const describe = (el) => ({tag: el.localName, cls: el.getAttribute('class') || ''});
	const walker = document.createTreeWalker(this, NodeFilter.SHOW_TEXT);
	for (let n = walker.nextNode(); n; n = walker.nextNode()) {
		if (n.data.trim() === '') continue;
		const chain = [];
		for (let a = n.parentElement; a && a !== this; a = a.parentElement) {
			let i = index.get(a);
			if (i === undefined) {
				i = elements.length;
				index.set(a, i);
				elements.push(describe(a));
			}
			chain.push(i);
		}
		nodes.push({node: n, data: n.data});
		leaves.push({data: n.data, chain});
	}
	this.__focusreadLeaves = nodes;
	this.__focusreadText = this.textContent;
	return {root: describe(this), elements, leaves};
}`

// applyJS swaps each planned leaf for a transformed span in place. A leaf
// that lost its parent is counted as detached; one whose text changed is
// left alone. The marker is set only when the root is untouched otherwise.
const applyJS = `(markup, spanClass, marker) => {
	const nodes = this.__focusreadLeaves || [];
	const text = this.__focusreadText;
	delete this.__focusreadLeaves;
	delete this.__focusreadText;
	let replaced = 0, detached = 0, changed = nodes.length !== markup.length;
	for (let i = 0; i < markup.length && i < nodes.length; i++) {
		if (!markup[i]) continue;
		const {node, data} = nodes[i];
		if (!node.parentNode) { detached++; continue; }
		if (node.data !== data || !this.contains(node)) { changed = true; continue; }
		const span = document.createElement('span');
		span.className = spanClass;
		span.innerHTML = markup[i];
		node.replaceWith(span);
		replaced++;
	}
	if (this.textContent !== text) changed = true;
	if (!changed) this.classList.add(marker);
	return {replaced, detached, marked: !changed};
}`

// restoreJS puts a text node back in place of every outermost transformed
// span and clears the marker.
const restoreJS = `(spanClass, marker) => {
	const sel = 'span.' + spanClass;
	let n = 0;
	for (const s of Array.from(this.querySelectorAll(sel))) {
		const outer = s.parentElement && s.parentElement.closest(sel);
		if (outer && this.contains(outer)) continue;
		s.replaceWith(document.createTextNode(s.textContent));
		n++;
	}
	this.classList.remove(marker);
	return n;
}`

type scanElement struct {
	Tag   string `json:"tag"`
	Class string `json:"cls"`
}

// node builds a childless element carrying only what eligibility reads.
func (e scanElement) node() *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     e.Tag,
		DataAtom: atom.Lookup([]byte(e.Tag)),
	}
	if e.Class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: e.Class}}
	}
	return n
}

type scanLeaf struct {
	Data  string `json:"data"`
	Chain []int  `json:"chain"`
}

// scan is what collectJS reports about one root.
type scan struct {
	Root     scanElement   `json:"root"`
	Elements []scanElement `json:"elements"`
	Leaves   []scanLeaf    `json:"leaves"`
}

// plan decides the markup for each collected leaf. An empty string leaves
// the node alone.
func plan(s scan, opts walker.Options) ([]string, walker.Result) {
	marker := opts.Marker
	if marker == "" {
		marker = walker.DefaultMarker
	}
	rootNode := s.Root.node()
	if walker.HasClass(rootNode, marker) {
		return nil, walker.Result{Outcome: walker.AlreadyProcessed}
	}
	if opts.Policy.IsSkippable(rootNode) {
		return nil, walker.Result{Outcome: walker.SkippedRoot}
	}

	kinds := make([]eligibility.Kind, len(s.Elements))
	for i, e := range s.Elements {
		kinds[i] = eligibility.Classify(e.node())
	}

	res := walker.Result{Outcome: walker.Processed}
	markup := make([]string, len(s.Leaves))
	ancestors := make([]eligibility.Kind, 0, 8)
	for i, leaf := range s.Leaves {
		ancestors = ancestors[:0]
		valid := true
		for _, idx := range leaf.Chain {
			if idx < 0 || idx >= len(kinds) {
				valid = false
				break
			}
			ancestors = append(ancestors, kinds[idx])
		}
		if !valid || !opts.Policy.Decide(ancestors, strings.TrimSpace(leaf.Data) == "") {
			continue
		}
		res.Leaves++
		if out := transform.Transform(leaf.Data, opts.Transform); out != leaf.Data {
			markup[i] = out
		}
	}
	return markup, res
}

func (r *root) Process(_ context.Context, opts walker.Options) (walker.Result, error) {
	res, err := r.el.Eval(collectJS)
	if err != nil {
		return walker.Result{}, fmt.Errorf("livepage: collect: %w", err)
	}
	var s scan
	if err := res.Value.Unmarshal(&s); err != nil {
		return walker.Result{}, fmt.Errorf("livepage: decode collect: %w", err)
	}

	markup, out := plan(s, opts)
	if out.Outcome != walker.Processed {
		if _, err := r.el.Eval(`() => { delete this.__focusreadLeaves; delete this.__focusreadText; }`); err != nil {
			return walker.Result{}, fmt.Errorf("livepage: release: %w", err)
		}
		return out, nil
	}

	marker := opts.Marker
	if marker == "" {
		marker = walker.DefaultMarker
	}
	applied, err := r.el.Eval(applyJS, markup, transform.SpanClass, marker)
	if err != nil {
		return walker.Result{}, fmt.Errorf("livepage: apply: %w", err)
	}
	out.Replaced = applied.Value.Get("replaced").Int()
	out.Detached = applied.Value.Get("detached").Int()
	if !applied.Value.Get("marked").Bool() {
		return out, ErrRootChanged
	}
	return out, nil
}

func (r *root) Restore(_ context.Context, marker string) (int, error) {
	if marker == "" {
		marker = walker.DefaultMarker
	}
	res, err := r.el.Eval(restoreJS, transform.SpanClass, marker)
	if err != nil {
		return 0, fmt.Errorf("livepage: restore: %w", err)
	}
	return res.Value.Int(), nil
}

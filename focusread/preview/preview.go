// Package preview renders a sample sentence with the current settings, the
// way the settings popup showed it, using the same transform the reader
// applies to the page.
package preview

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/bionic/focusread/internal/settings"
	"github.com/hazyhaar/bionic/focusread/internal/typography"
	"github.com/hazyhaar/bionic/transform"
)

// SampleText is rendered when the caller supplies no text.
const SampleText = "This is how your text will look with these settings applied to Claude."

// ContainerClass marks the preview container.
const ContainerClass = "focusread-preview"

// Result is a rendered preview.
type Result struct {
	Text  string `json:"text"`
	Style string `json:"style"`
	HTML  string `json:"html"`
}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("div", "span", "b")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-z-]+( [a-z-]+)*$`)).OnElements("div", "span", "b")
	p.AllowStyles("font-weight").OnElements("b")
	p.AllowStyles("font-family", "line-height", "letter-spacing", "word-spacing").OnElements("div")
	return p
}

// Render transforms text (SampleText when blank) with the ratio and weight
// from s overlaid on base, inside a container carrying s's typography.
// The enabled flag is ignored: a preview always shows the effect.
func Render(s settings.Settings, base transform.Options, text string) Result {
	if strings.TrimSpace(text) == "" {
		text = SampleText
	}
	s = s.Normalize()
	opts := s.TransformOptions(base)

	style := typography.Format(s.Typography().Declarations())
	container := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "class", Val: ContainerClass},
			{Key: "style", Val: style},
		},
	}

	markup := transform.Transform(text, opts)
	nodes, err := html.ParseFragment(strings.NewReader(markup), container)
	if err != nil {
		container.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	} else {
		for _, n := range nodes {
			container.AppendChild(n)
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, container); err != nil {
		return Result{Text: text, Style: style}
	}
	return Result{
		Text:  text,
		Style: style,
		HTML:  policy.Sanitize(buf.String()),
	}
}

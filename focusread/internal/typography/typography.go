// Package typography applies presentation overrides (font family, line
// height, letter and word spacing) to a response root's inline style.
// It never touches text content, so it is safe to run on every pass and on
// roots the walker refuses to enter.
package typography

import (
	"slices"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"
)

// DefaultFamily leaves the host's font family alone.
const DefaultFamily = "default"

// Settings holds the typography overrides.
type Settings struct {
	FontFamily    string  `json:"font_family"`
	LineHeight    float64 `json:"line_height"`
	LetterSpacing float64 `json:"letter_spacing"` // px
	WordSpacing   float64 `json:"word_spacing"`   // px
}

// Defaults returns the stock typography: host font, line height 1.7, no
// extra spacing.
func Defaults() Settings {
	return Settings{FontFamily: DefaultFamily, LineHeight: 1.7}
}

// Declaration is one CSS property/value pair.
type Declaration struct {
	Property string
	Value    string
}

// Declarations returns the properties Apply writes, in a fixed order.
func (s Settings) Declarations() []Declaration {
	var out []Declaration
	if s.FontFamily != "" && s.FontFamily != DefaultFamily {
		out = append(out, Declaration{"font-family", s.FontFamily})
	}
	out = append(out,
		Declaration{"line-height", formatFloat(s.LineHeight)},
		Declaration{"letter-spacing", formatFloat(s.LetterSpacing) + "px"},
		Declaration{"word-spacing", formatFloat(s.WordSpacing) + "px"},
	)
	return out
}

// Cleared returns the properties a restyle removes: font-family when the
// host font is selected, so switching back from a custom family takes
// effect without a reload.
func (s Settings) Cleared() []string {
	if s.FontFamily == "" || s.FontFamily == DefaultFamily {
		return []string{"font-family"}
	}
	return nil
}

// Style returns current with the settings applied.
func (s Settings) Style(current string) string {
	return Merge(current, s.Declarations(), s.Cleared()...)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Apply merges the settings into el's style attribute. It reports whether
// the attribute changed.
func Apply(el *html.Node, s Settings) bool {
	if el == nil || el.Type != html.ElementNode {
		return false
	}

	idx := -1
	current := ""
	for i, a := range el.Attr {
		if a.Namespace == "" && a.Key == "style" {
			idx, current = i, a.Val
			break
		}
	}

	merged := s.Style(current)
	if merged == current {
		return false
	}
	if idx < 0 {
		el.Attr = append(el.Attr, html.Attribute{Key: "style", Val: merged})
	} else {
		el.Attr[idx].Val = merged
	}
	return true
}

// Merge overrides the given declarations in an inline style string, drops
// the properties named in remove and keeps every other declaration in its
// original order.
func Merge(style string, decls []Declaration, remove ...string) string {
	existing := ParseInline(style)
	if len(remove) > 0 {
		kept := existing[:0]
		for _, d := range existing {
			if !slices.Contains(remove, d.Property) {
				kept = append(kept, d)
			}
		}
		existing = kept
	}

	for _, d := range decls {
		replaced := false
		for i := range existing {
			if existing[i].Property == d.Property {
				existing[i].Value = d.Value
				replaced = true
			}
		}
		if !replaced {
			existing = append(existing, d)
		}
	}
	return Format(existing)
}

// ParseInline parses the declarations of a style attribute. Malformed
// declarations are dropped; everything parsed before them is kept.
func ParseInline(style string) []Declaration {
	if strings.TrimSpace(style) == "" {
		return nil
	}

	p := css.NewParser(parse.NewInputString(style), true)
	var out []Declaration
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			return out
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			value := joinValue(p.Values())
			if value == "" {
				continue
			}
			prop := string(data)
			if gt == css.DeclarationGrammar {
				prop = strings.ToLower(prop)
			}
			out = append(out, Declaration{Property: prop, Value: value})
		}
	}
}

// joinValue rebuilds a declaration value, collapsing whitespace runs.
func joinValue(tokens []css.Token) string {
	var b strings.Builder
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			continue
		}
		b.Write(t.Data)
	}
	return strings.TrimSpace(b.String())
}

// Format serialises declarations as an inline style.
func Format(decls []Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.Property+": "+d.Value)
	}
	return strings.Join(parts, "; ")
}

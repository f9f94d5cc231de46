// Package transform implements the bionic reading rule: the head of every
// word is wrapped in an emphasis container so the eye lands on it first.
//
// Transform is pure and deterministic. It is shared by the tree walker and
// by the settings preview, which renders a sample sentence with the same rule.
package transform

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape escapes text for use as HTML character data.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Transform returns inline markup for text. When the options disable the
// transform, or when text contains no letter, text is returned verbatim.
// Otherwise every character-data run in the result is escaped.
func Transform(text string, opts Options) string {
	if text == "" || opts.Identity() || !hasLetter(text) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) * 3)
	for _, seg := range Split(text) {
		switch seg.Kind {
		case Space:
			b.WriteString(seg.Text)
		case Other:
			b.WriteString(Escape(seg.Text))
		case Word:
			writeWord(&b, seg.Text, opts)
		}
	}
	return b.String()
}

func writeWord(b *strings.Builder, seg string, opts Options) {
	prefix, word, suffix, ok := splitWord(seg)
	if !ok {
		// Unsplittable: emphasise the segment as a whole.
		b.WriteString(Emphasize(seg, opts))
		return
	}
	b.WriteString(Escape(prefix))
	b.WriteString(Emphasize(word, opts))
	b.WriteString(Escape(suffix))
}

// Emphasize wraps the head of word in the emphasis container. Words no
// longer than ShortWordThreshold are wrapped whole.
func Emphasize(word string, opts Options) string {
	n := utf8.RuneCountInString(word)
	if n == 0 {
		return word
	}

	k := n
	if n > opts.ShortWordThreshold {
		k = opts.BoldLen(n)
	}

	cut := len(word)
	if k < n {
		cut = byteOffset(word, k)
	}
	return OpenTag(opts.FontWeight) + Escape(word[:cut]) + "</b>" + Escape(word[cut:])
}

// OpenTag returns the opening tag of the emphasis container.
func OpenTag(weight int) string {
	return `<b class="` + EmphasisClass + `" style="font-weight:` + strconv.Itoa(weight) + `">`
}

func byteOffset(s string, runes int) int {
	i := 0
	for off := range s {
		if i == runes {
			return off
		}
		i++
	}
	return len(s)
}

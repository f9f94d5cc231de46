package transform

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SegmentKind classifies a run of text.
type SegmentKind int

const (
	// Space is a maximal whitespace run. It is never transformed.
	Space SegmentKind = iota
	// Word is a maximal run of letters.
	Word
	// Other is a maximal run of characters that are neither letters nor space.
	Other
)

func (k SegmentKind) String() string {
	switch k {
	case Space:
		return "space"
	case Word:
		return "word"
	case Other:
		return "other"
	default:
		return "unknown"
	}
}

// Segment is one run produced by Split.
type Segment struct {
	Kind SegmentKind
	Text string
}

func classOf(r rune) SegmentKind {
	switch {
	case unicode.IsSpace(r):
		return Space
	case unicode.IsLetter(r):
		return Word
	default:
		return Other
	}
}

// Split cuts text at every whitespace run and at every transition between
// a letter and a non-letter. Concatenating the Text of the returned segments
// yields text exactly.
func Split(text string) []Segment {
	if text == "" {
		return nil
	}

	var segs []Segment
	start := 0
	cur := classOf(firstRune(text))
	for i, r := range text {
		k := classOf(r)
		if k != cur {
			segs = append(segs, Segment{Kind: cur, Text: text[start:i]})
			start = i
			cur = k
		}
	}
	segs = append(segs, Segment{Kind: cur, Text: text[start:]})
	return segs
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// splitWord extracts the optional non-letter prefix, the letter run and the
// non-letter suffix of a segment. ok is false when the segment has no letter
// or when letters reappear after the suffix started.
func splitWord(seg string) (prefix, word, suffix string, ok bool) {
	start := strings.IndexFunc(seg, unicode.IsLetter)
	if start < 0 {
		return "", "", "", false
	}
	rest := seg[start:]
	end := strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsLetter(r) })
	if end < 0 {
		return seg[:start], rest, "", true
	}
	suffix = rest[end:]
	if strings.IndexFunc(suffix, unicode.IsLetter) >= 0 {
		return "", "", "", false
	}
	return seg[:start], rest[:end], suffix, true
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

package transform

import "math"

const (
	// EmphasisClass marks the emphasis container wrapped around the head of
	// each word. The eligibility filter refuses to enter it.
	EmphasisClass = "bionic-bold"

	// SpanClass marks the container that replaces a transformed text leaf.
	SpanClass = "bionic-text"
)

// Options controls the emphasis rule. Options is a value: every call receives
// its own copy, so a pass never observes a settings change half way through.
type Options struct {
	// BoldRatio is the emphasised fraction of a word. Values <= 0 disable
	// the transform entirely.
	BoldRatio float64 `json:"bold_ratio" yaml:"bold_ratio"`
	// FontWeight is written into the emphasis container's style.
	FontWeight int `json:"font_weight" yaml:"font_weight"`
	// MinBold is the minimum number of emphasised runes. Values below 1 are
	// treated as 1.
	MinBold int `json:"min_bold" yaml:"min_bold"`
	// ShortWordThreshold: words of this many runes or fewer are emphasised whole.
	ShortWordThreshold int `json:"short_word_threshold" yaml:"short_word_threshold"`
}

// DefaultOptions returns the stock rule: half of each word at weight 800,
// words of three letters or fewer fully emphasised.
func DefaultOptions() Options {
	return Options{
		BoldRatio:          0.5,
		FontWeight:         800,
		MinBold:            1,
		ShortWordThreshold: 3,
	}
}

// Identity reports whether Transform returns its input unchanged for every text.
func (o Options) Identity() bool {
	return !(o.BoldRatio > 0)
}

// BoldLen returns the emphasised prefix length for a word of n runes that is
// longer than the short-word threshold: clamp(ceil(n*ratio), minBold, n).
func (o Options) BoldLen(n int) int {
	if n <= 0 {
		return 0
	}
	minBold := o.MinBold
	if minBold < 1 {
		minBold = 1
	}

	ratio := o.BoldRatio
	if math.IsNaN(ratio) || ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	b := int(math.Ceil(float64(n) * ratio))
	if b < minBold {
		b = minBold
	}
	if b > n {
		b = n
	}
	return b
}

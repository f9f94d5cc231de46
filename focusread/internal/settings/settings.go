// Package settings persists the user-facing reader settings in SQLite and
// reports changes. Values are stored one key per row, JSON-encoded, under
// the same keys the popup used.
package settings

import (
	"github.com/hazyhaar/bionic/focusread/internal/typography"
	"github.com/hazyhaar/bionic/transform"
)

// Bounds applied by Normalize.
const (
	MinWeight = 100
	MaxWeight = 900
)

// Settings is the persisted reader configuration. BoldRatio is a percent.
type Settings struct {
	BoldRatio     int     `json:"boldRatio"`
	FontWeight    int     `json:"fontWeight"`
	Enabled       bool    `json:"enabled"`
	FontFamily    string  `json:"fontFamily"`
	LineHeight    float64 `json:"lineHeight"`
	LetterSpacing float64 `json:"letterSpacing"`
	WordSpacing   float64 `json:"wordSpacing"`
}

// Defaults returns the settings used when nothing is stored.
func Defaults() Settings {
	return Settings{
		BoldRatio:     50,
		FontWeight:    800,
		Enabled:       true,
		FontFamily:    typography.DefaultFamily,
		LineHeight:    1.7,
		LetterSpacing: 0,
		WordSpacing:   0,
	}
}

// Normalize clamps out-of-range values: percent to [0,100], weight to
// [100,900], a non-positive line height and an empty family to defaults.
func (s Settings) Normalize() Settings {
	s.BoldRatio = min(max(s.BoldRatio, 0), 100)
	if s.FontWeight == 0 {
		s.FontWeight = Defaults().FontWeight
	}
	s.FontWeight = min(max(s.FontWeight, MinWeight), MaxWeight)
	if !(s.LineHeight > 0) {
		s.LineHeight = Defaults().LineHeight
	}
	if s.FontFamily == "" {
		s.FontFamily = typography.DefaultFamily
	}
	return s
}

// Ratio returns BoldRatio as a fraction.
func (s Settings) Ratio() float64 {
	return float64(s.BoldRatio) / 100
}

// TransformOptions overlays the persisted ratio and weight on base, which
// carries the operator-configured thresholds.
func (s Settings) TransformOptions(base transform.Options) transform.Options {
	base.BoldRatio = s.Ratio()
	base.FontWeight = s.FontWeight
	return base
}

// Typography returns the presentation overrides.
func (s Settings) Typography() typography.Settings {
	return typography.Settings{
		FontFamily:    s.FontFamily,
		LineHeight:    s.LineHeight,
		LetterSpacing: s.LetterSpacing,
		WordSpacing:   s.WordSpacing,
	}
}

// Patch is a partial write. Nil fields are left unchanged.
type Patch struct {
	BoldRatio     *int     `json:"boldRatio,omitempty"`
	FontWeight    *int     `json:"fontWeight,omitempty"`
	Enabled       *bool    `json:"enabled,omitempty"`
	FontFamily    *string  `json:"fontFamily,omitempty"`
	LineHeight    *float64 `json:"lineHeight,omitempty"`
	LetterSpacing *float64 `json:"letterSpacing,omitempty"`
	WordSpacing   *float64 `json:"wordSpacing,omitempty"`
}

// Empty reports whether the patch sets nothing.
func (p Patch) Empty() bool {
	return p.BoldRatio == nil && p.FontWeight == nil && p.Enabled == nil &&
		p.FontFamily == nil && p.LineHeight == nil && p.LetterSpacing == nil &&
		p.WordSpacing == nil
}

// Apply returns s with the patch fields overlaid, normalised.
func (s Settings) Apply(p Patch) Settings {
	if p.BoldRatio != nil {
		s.BoldRatio = *p.BoldRatio
	}
	if p.FontWeight != nil {
		s.FontWeight = *p.FontWeight
	}
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.LineHeight != nil {
		s.LineHeight = *p.LineHeight
	}
	if p.LetterSpacing != nil {
		s.LetterSpacing = *p.LetterSpacing
	}
	if p.WordSpacing != nil {
		s.WordSpacing = *p.WordSpacing
	}
	return s.Normalize()
}

// Full returns a patch that writes every field of s.
func Full(s Settings) Patch {
	return Patch{
		BoldRatio:     &s.BoldRatio,
		FontWeight:    &s.FontWeight,
		Enabled:       &s.Enabled,
		FontFamily:    &s.FontFamily,
		LineHeight:    &s.LineHeight,
		LetterSpacing: &s.LetterSpacing,
		WordSpacing:   &s.WordSpacing,
	}
}

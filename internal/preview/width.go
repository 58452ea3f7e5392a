package preview

import (
	"github.com/clipperhouse/uax29/v2/graphemes"
	"github.com/mattn/go-runewidth"
)

// WidthOptions control display width calculation. Currently only relevant for East Asian code points and their locale.
type WidthOptions struct {
	EastAsianWidth   bool // if true, treats certain East Asian code points as 2 wide. Use if the locale is one of CJK.
	TreatEmojiAsWide bool // only considered if EastAsianWidth
}

// TextWidth returns the display width of s in a monospace terminal. If opts is nil, locale is assumed to be non-East Asian.
func TextWidth(s string, opts *WidthOptions) int {
	return condition(opts).StringWidth(s)
}

// grapheme is one user-perceived character and its display width.
type grapheme struct {
	text  string
	width int
}

// splitGraphemes splits s into grapheme clusters.
func splitGraphemes(s string, opts *WidthOptions) []grapheme {
	cond := condition(opts)
	var out []grapheme
	iter := graphemes.FromString(s)
	for iter.Next() {
		g := iter.Value()
		out = append(out, grapheme{text: g, width: cond.StringWidth(g)})
	}
	return out
}

func condition(opts *WidthOptions) *runewidth.Condition {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = false
	cond.StrictEmojiNeutral = true

	if opts == nil {
		return cond
	}

	cond.EastAsianWidth = opts.EastAsianWidth
	if opts.EastAsianWidth && opts.TreatEmojiAsWide {
		cond.StrictEmojiNeutral = false
	}
	return cond
}

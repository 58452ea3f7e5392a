// Package spandoc is an editable rich-text document made of addressable regions.
//
// A Document owns one text buffer. Content is added in groups of Elements (text runs and glyph placeholders); an Element tagged with an ID can later have its text replaced
// with Modify, and the whole group that owns it can be taken out with Remove. Every other region's offsets are kept consistent, and each region's color and size travel
// with it, so Render always reports the current text and its style runs.
//
// Offsets are in runes (Unicode code points). A glyph occupies exactly one rune, U+FFFC.
//
// A Document is not safe for concurrent use. It must be driven by a single writer, in order.
package spandoc

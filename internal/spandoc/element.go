package spandoc

// Placeholder is the rune that stands in for a glyph in the buffer.
const Placeholder = '\uFFFC'

// Element is one renderable unit: a text run, or (when Glyph is set) a glyph placeholder.
type Element struct {
	ID string // optional; the addressing key for Modify, Remove, and TextOf

	Text  string // text run content
	Glyph string // glyph source reference (ex: "@drawable/ic_poll_black_48dp")

	Color Color // zero means Black
	Size  int   // text size in sp; zero means Options.DefaultTextSize

	// Glyph bounds in dp; zero means 1.25 × Options.DefaultTextSize.
	Width  float64
	Height float64
}

// Text returns a text run element.
func Text(id string, content string, color Color) Element {
	return Element{ID: id, Text: content, Color: color}
}

// Glyph returns a glyph element with default bounds.
func Glyph(id string, src string, color Color) Element {
	return Element{ID: id, Glyph: src, Color: color}
}

func (e Element) IsGlyph() bool {
	return e.Glyph != ""
}

// GlyphProvider acquires the visual resources behind glyph elements.
type GlyphProvider interface {
	// Acquire returns a handle for src tinted with tint and bounded to width × height pixels.
	Acquire(src string, tint Color, width, height int) (GlyphHandle, error)
}

// GlyphHandle is an acquired glyph resource. Release is called exactly once, when the glyph leaves the document or the document is destroyed.
type GlyphHandle interface {
	Release()
}

// Span describes where an element currently sits in the buffer: the half-open rune range [Start, End).
type Span struct {
	ID    string // empty for untagged elements
	Group string // empty for groups added without an id
	Start int
	End   int
	Glyph bool
}

// StyleRun is the style of one non-empty range of a Rendering.
type StyleRun struct {
	Start int
	End   int
	ID    string
	Color Color
	Size  int    // text size in sp
	Glyph string // glyph source reference, for placeholder runs
}

// Rendering is a document's current text and style map, in rune offsets.
type Rendering struct {
	Text string
	Runs []StyleRun
}

package spandoc

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/codalotl/streamfill/internal/diag"
)

var (
	ErrSpanNotFound      = errors.New("spandoc: span not found")
	ErrRangeInconsistent = errors.New("spandoc: span range inconsistent with buffer")
	ErrDuplicateGroup    = errors.New("spandoc: duplicate group or element id")
	ErrGlyphSpan         = errors.New("spandoc: span is a glyph")
	ErrDestroyed         = errors.New("spandoc: document destroyed")
)

// Options configure a Document.
type Options struct {
	Glyphs          GlyphProvider // required if any glyph element is added
	Density         float64       // pixels per dp; <= 0 means 1
	DefaultTextSize int           // sp; <= 0 means 16
	Logger          *slog.Logger  // receives diagnostics for rejected operations; may be nil
}

// span is the bookkeeping for one element, tagged or not. Document.spans holds every element in buffer order, so the spans tile the buffer exactly.
type span struct {
	id     string
	group  string // key into Document.groups
	start  int
	end    int
	elem   Element // stored attributes; Text tracks the current content
	handle GlyphHandle
}

// Document is an editable buffer of addressable regions. Create one with New.
type Document struct {
	diag.Ctx

	glyphs   GlyphProvider
	density  float64
	textSize int

	buf    []rune
	spans  []*span
	byID   map[string]*span
	groups map[string][]*span

	// groupNames maps a group key to its caller-visible id. Groups added without an id get a private key and an empty name.
	groupNames map[string]string
	anonGroups int

	destroyed bool
}

func New(opts Options) *Document {
	d := &Document{
		Ctx:        diag.NewCtx(opts.Logger),
		glyphs:     opts.Glyphs,
		density:    opts.Density,
		textSize:   opts.DefaultTextSize,
		byID:       map[string]*span{},
		groups:     map[string][]*span{},
		groupNames: map[string]string{},
	}
	if d.density <= 0 {
		d.density = 1
	}
	if d.textSize <= 0 {
		d.textSize = 16
	}
	return d
}

// AddGroup appends elements to the end of the buffer as one group. id may be empty, in which case the group is reachable only through its elements' ids.
//
// It returns ErrDuplicateGroup if id or any element id is already in use, and a wrapped provider error if a glyph can't be acquired. On error, the document is unchanged.
func (d *Document) AddGroup(id string, elements []Element) error {
	if d.destroyed {
		return d.LogWrappedErr("spandoc.AddGroup", ErrDestroyed, "group", id)
	}

	seen := map[string]bool{}
	for _, e := range elements {
		if e.ID == "" {
			continue
		}
		if seen[e.ID] || d.idInUse(e.ID) {
			return d.LogWrappedErr("spandoc.AddGroup", ErrDuplicateGroup, "group", id, "id", e.ID)
		}
		seen[e.ID] = true
	}
	if id != "" && d.idInUse(id) {
		return d.LogWrappedErr("spandoc.AddGroup", ErrDuplicateGroup, "group", id)
	}

	handles, err := d.acquireGlyphs(elements)
	if err != nil {
		return d.LogWrappedErr("spandoc.AddGroup", err, "group", id)
	}

	key := id
	if key == "" {
		d.anonGroups++
		key = fmt.Sprintf("\x00anon-%d", d.anonGroups)
	}
	d.groupNames[key] = id

	var members []*span
	for i, e := range elements {
		content := []rune(e.Text)
		if e.IsGlyph() {
			content = []rune{Placeholder}
			e.Text = ""
		}
		s := &span{
			id:     e.ID,
			group:  key,
			start:  len(d.buf),
			end:    len(d.buf) + len(content),
			elem:   e,
			handle: handles[i],
		}
		d.buf = append(d.buf, content...)
		d.spans = append(d.spans, s)
		members = append(members, s)
		if e.ID != "" {
			d.byID[e.ID] = s
		}
	}
	d.groups[key] = members
	return nil
}

// acquireGlyphs returns one handle per element (nil for text). If any acquisition fails, those already acquired are released.
func (d *Document) acquireGlyphs(elements []Element) ([]GlyphHandle, error) {
	handles := make([]GlyphHandle, len(elements))
	for i, e := range elements {
		if !e.IsGlyph() {
			continue
		}
		if d.glyphs == nil {
			releaseAll(handles)
			return nil, fmt.Errorf("spandoc: no glyph provider for %q", e.Glyph)
		}
		h, err := d.glyphs.Acquire(e.Glyph, e.Color.orDefault(), d.px(e.Width), d.px(e.Height))
		if err != nil {
			releaseAll(handles)
			return nil, err
		}
		handles[i] = h
	}
	return handles, nil
}

func releaseAll(handles []GlyphHandle) {
	for _, h := range handles {
		if h != nil {
			h.Release()
		}
	}
}

// px converts a glyph dimension in dp to pixels. Zero means the default glyph size.
func (d *Document) px(dp float64) int {
	if dp <= 0 {
		dp = 1.25 * float64(d.textSize)
	}
	return int(math.Round(dp * d.density))
}

func (d *Document) idInUse(id string) bool {
	if _, ok := d.byID[id]; ok {
		return true
	}
	_, ok := d.groups[id]
	return ok
}

// Modify replaces the text of the element tagged id with content. Later regions shift by the change in length; the element keeps its color and size.
//
// Errors: ErrSpanNotFound for an unknown id, ErrGlyphSpan for a glyph element, and ErrRangeInconsistent if the element's recorded range does not fit the buffer. In every case
// the document is left unchanged.
func (d *Document) Modify(id string, content string) error {
	if d.destroyed {
		return d.LogWrappedErr("spandoc.Modify", ErrDestroyed, "id", id)
	}
	s, ok := d.byID[id]
	if !ok {
		return d.LogWrappedErr("spandoc.Modify", ErrSpanNotFound, "id", id)
	}
	if s.elem.IsGlyph() {
		return d.LogWrappedErr("spandoc.Modify", ErrGlyphSpan, "id", id)
	}
	if !d.fits(s) {
		return d.LogWrappedErr("spandoc.Modify", ErrRangeInconsistent, "id", id, "start", s.start, "end", s.end, "len", len(d.buf))
	}

	d.replace(d.indexOf(s), []rune(content))
	s.elem.Text = content
	return nil
}

// Remove removes every element of the group that owns id, where id is a group id or an element id. Glyph handles of the group are released.
func (d *Document) Remove(id string) error {
	if d.destroyed {
		return d.LogWrappedErr("spandoc.Remove", ErrDestroyed, "id", id)
	}

	key, ok := d.groupKey(id)
	if !ok {
		return d.LogWrappedErr("spandoc.Remove", ErrSpanNotFound, "id", id)
	}
	members := d.groups[key]
	for _, s := range members {
		if !d.fits(s) {
			return d.LogWrappedErr("spandoc.Remove", ErrRangeInconsistent, "id", id, "element", s.id, "start", s.start, "end", s.end, "len", len(d.buf))
		}
	}

	for _, s := range members {
		i := d.indexOf(s)
		d.replace(i, nil)
		d.spans = slices.Delete(d.spans, i, i+1)
		if s.handle != nil {
			s.handle.Release()
			s.handle = nil
		}
		if s.id != "" {
			delete(d.byID, s.id)
		}
	}
	delete(d.groups, key)
	delete(d.groupNames, key)
	return nil
}

// groupKey returns the key of the group that owns id.
func (d *Document) groupKey(id string) (string, bool) {
	if s, ok := d.byID[id]; ok {
		return s.group, true
	}
	if id == "" {
		return "", false
	}
	if _, ok := d.groups[id]; ok {
		return id, true
	}
	return "", false
}

// replace is the only place offsets change: it replaces the text of d.spans[i] and shifts every later span by the change in length.
func (d *Document) replace(i int, content []rune) {
	s := d.spans[i]
	delta := len(content) - (s.end - s.start)

	buf := make([]rune, 0, len(d.buf)+delta)
	buf = append(buf, d.buf[:s.start]...)
	buf = append(buf, content...)
	buf = append(buf, d.buf[s.end:]...)
	d.buf = buf

	s.end = s.start + len(content)
	for _, later := range d.spans[i+1:] {
		later.start += delta
		later.end += delta
	}
}

func (d *Document) indexOf(s *span) int {
	return slices.Index(d.spans, s)
}

func (d *Document) fits(s *span) bool {
	return s.start >= 0 && s.start <= s.end && s.end <= len(d.buf) && d.indexOf(s) >= 0
}

// TextOf returns the current text of the element tagged id, or "" if there is none.
func (d *Document) TextOf(id string) string {
	s, ok := d.byID[id]
	if !ok || d.destroyed || !d.fits(s) {
		return ""
	}
	return string(d.buf[s.start:s.end])
}

// HasGroup reports whether id is a live group id or the id of an element in a live group.
func (d *Document) HasGroup(id string) bool {
	if d.destroyed {
		return false
	}
	_, ok := d.groupKey(id)
	return ok
}

// Spans returns every element's current span, in buffer order.
func (d *Document) Spans() []Span {
	if d.destroyed {
		return nil
	}
	out := make([]Span, len(d.spans))
	for i, s := range d.spans {
		out[i] = Span{ID: s.id, Group: d.groupNames[s.group], Start: s.start, End: s.end, Glyph: s.elem.IsGlyph()}
	}
	return out
}

// Len returns the buffer length in runes.
func (d *Document) Len() int {
	return len(d.buf)
}

// Render returns the current text and one style run per non-empty element.
func (d *Document) Render() Rendering {
	if d.destroyed {
		return Rendering{}
	}
	r := Rendering{Text: string(d.buf)}
	for _, s := range d.spans {
		if s.end == s.start {
			continue
		}
		size := s.elem.Size
		if size <= 0 {
			size = d.textSize
		}
		r.Runs = append(r.Runs, StyleRun{
			Start: s.start,
			End:   s.end,
			ID:    s.id,
			Color: s.elem.Color.orDefault(),
			Size:  size,
			Glyph: s.elem.Glyph,
		})
	}
	return r
}

// Destroy releases every glyph handle and clears the document. The document is unusable afterwards; a second Destroy returns ErrDestroyed.
func (d *Document) Destroy() error {
	if d.destroyed {
		return ErrDestroyed
	}
	for _, s := range d.spans {
		if s.handle != nil {
			s.handle.Release()
			s.handle = nil
		}
	}
	d.destroyed = true
	d.buf = nil
	d.spans = nil
	clear(d.byID)
	clear(d.groups)
	clear(d.groupNames)
	return nil
}

// Validate checks the document's invariants: spans tile the buffer in order, each span's length equals its element's rendered length, and tagged ids are unique. It returns
// an error wrapping ErrRangeInconsistent describing the first violation.
func (d *Document) Validate() error {
	if d.destroyed {
		return ErrDestroyed
	}
	pos := 0
	ids := map[string]bool{}
	for _, s := range d.spans {
		want := len([]rune(s.elem.Text))
		if s.elem.IsGlyph() {
			want = 1
		}
		switch {
		case s.start != pos:
			return diag.Wrap("span does not start where the previous one ends", ErrRangeInconsistent, "id", s.id, "start", s.start, "want", pos)
		case s.end-s.start != want:
			return diag.Wrap("span length differs from its content", ErrRangeInconsistent, "id", s.id, "len", s.end-s.start, "want", want)
		case s.id != "" && ids[s.id]:
			return diag.Wrap("duplicate span id", ErrRangeInconsistent, "id", s.id)
		case s.id != "" && d.byID[s.id] != s:
			return diag.Wrap("span id not indexed", ErrRangeInconsistent, "id", s.id)
		}
		if s.id != "" {
			ids[s.id] = true
		}
		pos = s.end
	}
	if pos != len(d.buf) {
		return diag.Wrap("spans do not cover the buffer", ErrRangeInconsistent, "covered", pos, "len", len(d.buf))
	}
	if len(ids) != len(d.byID) {
		return diag.Wrap("id index has stale entries", ErrRangeInconsistent, "indexed", len(d.byID), "live", len(ids))
	}
	return nil
}

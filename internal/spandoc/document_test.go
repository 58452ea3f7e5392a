package spandoc

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/codalotl/streamfill/internal/diag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	src      string
	released int
}

func (h *fakeHandle) Release() { h.released++ }

type fakeGlyphs struct {
	fail    string // Acquire fails for this src
	handles []*fakeHandle
	sizes   [][2]int
	tints   []Color
}

func (f *fakeGlyphs) Acquire(src string, tint Color, width, height int) (GlyphHandle, error) {
	if src == f.fail {
		return nil, errors.New("no such drawable")
	}
	h := &fakeHandle{src: src}
	f.handles = append(f.handles, h)
	f.sizes = append(f.sizes, [2]int{width, height})
	f.tints = append(f.tints, tint)
	return h, nil
}

func (f *fakeGlyphs) live() int {
	n := 0
	for _, h := range f.handles {
		if h.released == 0 {
			n++
		}
	}
	return n
}

var green = MustParseColor("#4CAF50")

func moneyGroup() []Element {
	return []Element{
		Glyph("", "@drawable/ic_attach_money", MustParseColor("#2196F3")),
		Text("money", "0", MustParseColor("#2196F3")),
		Text("", " yuan", Black),
	}
}

func newDoc(t *testing.T) (*Document, *fakeGlyphs) {
	t.Helper()
	glyphs := &fakeGlyphs{}
	d := New(Options{Glyphs: glyphs, Density: 2})
	require.NoError(t, d.AddGroup("welcome", []Element{Text("welcome", "This time ", Black)}))
	require.NoError(t, d.AddGroup("type", []Element{Glyph("", "@drawable/ic_poll", green), Text("type", "expense", green)}))
	require.NoError(t, d.AddGroup("money", moneyGroup()))
	require.NoError(t, d.Validate())
	return d, glyphs
}

func TestAddGroup(t *testing.T) {
	d, glyphs := newDoc(t)

	assert.Equal(t, "This time ￼expense￼0 yuan", d.Render().Text)
	assert.Equal(t, "expense", d.TextOf("type"))
	assert.Equal(t, "0", d.TextOf("money"))
	assert.Equal(t, "", d.TextOf("nope"))
	assert.True(t, d.HasGroup("money"))
	assert.False(t, d.HasGroup("time"))

	// Default glyph size is 1.25 × 16dp at density 2.
	assert.Equal(t, [][2]int{{40, 40}, {40, 40}}, glyphs.sizes)
	assert.Equal(t, green, glyphs.tints[0])
	assert.Equal(t, 2, glyphs.live())

	spans := d.Spans()
	require.Len(t, spans, 6)
	assert.Equal(t, Span{ID: "type", Group: "type", Start: 11, End: 18}, spans[2])
	assert.Equal(t, Span{Group: "money", Start: 18, End: 19, Glyph: true}, spans[3])
}

func TestAddGroup_Duplicate(t *testing.T) {
	d, glyphs := newDoc(t)
	logger, capture := diag.NewCapture()
	d.Logger = logger
	before := d.Render()

	err := d.AddGroup("money", moneyGroup())
	assert.ErrorIs(t, err, ErrDuplicateGroup)

	err = d.AddGroup("other", []Element{Text("type", "x", Black)})
	assert.ErrorIs(t, err, ErrDuplicateGroup)

	err = d.AddGroup("twice", []Element{Text("a", "x", Black), Text("a", "y", Black)})
	assert.ErrorIs(t, err, ErrDuplicateGroup)

	assert.Equal(t, before, d.Render())
	assert.Equal(t, 2, glyphs.live())
	assert.Len(t, capture.Records(), 3)
	require.NoError(t, d.Validate())
}

func TestAddGroup_GlyphFailureLeavesDocumentUntouched(t *testing.T) {
	d, glyphs := newDoc(t)
	glyphs.fail = "@drawable/broken"
	before := d.Render()

	err := d.AddGroup("time", []Element{
		Glyph("", "@drawable/ic_alarm", Red),
		Text("time", "2025-03-08 18:10:31", Red),
		Glyph("", "@drawable/broken", Red),
	})
	require.Error(t, err)
	assert.Equal(t, before, d.Render())
	assert.False(t, d.HasGroup("time"))
	assert.Equal(t, 2, glyphs.live())
	require.NoError(t, d.Validate())

	d2 := New(Options{})
	assert.Error(t, d2.AddGroup("g", []Element{Glyph("", "@drawable/x", Red)}))
}

func TestModify(t *testing.T) {
	d, _ := newDoc(t)

	require.NoError(t, d.Modify("money", "26.5"))
	assert.Equal(t, "26.5", d.TextOf("money"))
	assert.Equal(t, "This time ￼expense￼26.5 yuan", d.Render().Text)

	require.NoError(t, d.Modify("type", "收入"))
	assert.Equal(t, "收入", d.TextOf("type"))
	assert.Equal(t, "26.5", d.TextOf("money"))
	assert.Equal(t, "This time ￼收入￼26.5 yuan", d.Render().Text)
	require.NoError(t, d.Validate())

	// The style stays with the element.
	var moneyRun StyleRun
	for _, r := range d.Render().Runs {
		if r.ID == "money" {
			moneyRun = r
		}
	}
	assert.Equal(t, StyleRun{Start: 14, End: 18, ID: "money", Color: MustParseColor("#2196F3"), Size: 16}, moneyRun)
}

func TestModify_EmptyContentKeepsNeighborsApart(t *testing.T) {
	d := New(Options{})
	require.NoError(t, d.AddGroup("g", []Element{Text("a", "x", Black), Text("b", "y", Black), Text("c", "z", Black)}))

	require.NoError(t, d.Modify("b", ""))
	require.NoError(t, d.Modify("a", ""))
	require.NoError(t, d.Modify("b", "BB"))
	require.NoError(t, d.Modify("a", "A"))

	assert.Equal(t, "ABBz", d.Render().Text)
	assert.Equal(t, "A", d.TextOf("a"))
	assert.Equal(t, "BB", d.TextOf("b"))
	assert.Equal(t, "z", d.TextOf("c"))
	require.NoError(t, d.Validate())
}

func TestModify_Errors(t *testing.T) {
	d, _ := newDoc(t)
	logger, capture := diag.NewCapture()
	d.Logger = logger

	assert.ErrorIs(t, d.Modify("time", "x"), ErrSpanNotFound)

	require.NoError(t, d.AddGroup("icon", []Element{Glyph("icon", "@drawable/i", Red)}))
	assert.ErrorIs(t, d.Modify("icon", "x"), ErrGlyphSpan)

	// Corrupt the bookkeeping: the guard must refuse to touch the buffer.
	before := d.Render()
	d.byID["money"].end = 1000
	assert.ErrorIs(t, d.Modify("money", "99"), ErrRangeInconsistent)
	assert.Equal(t, before.Text, d.Render().Text)
	assert.ErrorIs(t, d.Validate(), ErrRangeInconsistent)

	assert.Len(t, capture.Messages(0), 3)
}

func TestRemove(t *testing.T) {
	d, glyphs := newDoc(t)
	require.NoError(t, d.AddGroup("time", []Element{Text("", ", at ", Black), Text("time", "18:10", Red)}))

	before := d.Spans()
	removedLen := len([]rune("￼expense"))

	require.NoError(t, d.Remove("type"))
	assert.False(t, d.HasGroup("type"))
	assert.Equal(t, "", d.TextOf("type"))
	assert.Equal(t, "This time ￼0 yuan, at 18:10", d.Render().Text)
	assert.Equal(t, 1, glyphs.live())
	require.NoError(t, d.Validate())

	after := d.Spans()
	require.Len(t, after, len(before)-2)
	for i, s := range before[3:] {
		assert.Equal(t, s.Start-removedLen, after[i+1].Start)
		assert.Equal(t, s.End-removedLen, after[i+1].End)
	}
}

func TestRemove_ByElementIDRemovesWholeGroup(t *testing.T) {
	d, _ := newDoc(t)
	require.NoError(t, d.AddGroup("catename", []Element{
		Text("a", ", filed under ", Black),
		Glyph("b", "@drawable/ic_event_note", Red),
		Text("catename", "Snacks", Red),
		Text("c", "", Black),
	}))

	require.NoError(t, d.Remove("b"))
	for _, id := range []string{"a", "b", "catename", "c"} {
		assert.False(t, d.HasGroup(id), id)
	}
	assert.Equal(t, "This time ￼expense￼0 yuan", d.Render().Text)
	require.NoError(t, d.Validate())

	// The ids are free again.
	require.NoError(t, d.AddGroup("catename", []Element{Text("catename", "Food", Red)}))
}

func TestRemove_Unknown(t *testing.T) {
	d, _ := newDoc(t)
	before := d.Render()
	assert.ErrorIs(t, d.Remove("time"), ErrSpanNotFound)
	assert.ErrorIs(t, d.Remove(""), ErrSpanNotFound)
	assert.Equal(t, before, d.Render())
}

func TestAnonymousGroup(t *testing.T) {
	d := New(Options{})
	require.NoError(t, d.AddGroup("", []Element{Text("", "label: ", Black), Text("value", "v", Red)}))
	require.NoError(t, d.AddGroup("", []Element{Text("", "!", Black)}))

	assert.True(t, d.HasGroup("value"))
	assert.False(t, d.HasGroup(""))
	require.NoError(t, d.Remove("value"))
	assert.Equal(t, "!", d.Render().Text)
	require.NoError(t, d.Validate())
}

func TestDestroy(t *testing.T) {
	d, glyphs := newDoc(t)

	require.NoError(t, d.Destroy())
	assert.Equal(t, 0, glyphs.live())
	for _, h := range glyphs.handles {
		assert.Equal(t, 1, h.released)
	}

	assert.ErrorIs(t, d.Destroy(), ErrDestroyed)
	assert.ErrorIs(t, d.AddGroup("x", nil), ErrDestroyed)
	assert.ErrorIs(t, d.Modify("money", "1"), ErrDestroyed)
	assert.ErrorIs(t, d.Remove("money"), ErrDestroyed)
	assert.Empty(t, d.TextOf("money"))
	assert.False(t, d.HasGroup("money"))
	assert.Nil(t, d.Spans())
	assert.Equal(t, Rendering{}, d.Render())
}

func TestRender_RunsSkipEmptyAndUseDefaults(t *testing.T) {
	d := New(Options{DefaultTextSize: 14})
	require.NoError(t, d.AddGroup("g", []Element{
		{ID: "big", Text: "Big", Size: 20},
		Text("empty", "", Red),
		Text("plain", "p", 0),
	}))

	r := d.Render()
	assert.Equal(t, "Bigp", r.Text)
	assert.Equal(t, []StyleRun{
		{Start: 0, End: 3, ID: "big", Color: Black, Size: 20},
		{Start: 3, End: 4, ID: "plain", Color: Black, Size: 14},
	}, r.Runs)
}

// TestRandomMutations drives a document with random operations and checks it against a simple model after every step.
func TestRandomMutations(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	glyphs := &fakeGlyphs{}
	d := New(Options{Glyphs: glyphs})

	type modelGroup struct {
		id    string
		elems []Element
	}
	var model []*modelGroup
	contents := []string{"", "a", "hello", "中文字", "😀x", "26.5", "a\nb"}

	expectedText := func() string {
		var b strings.Builder
		for _, g := range model {
			for _, e := range g.elems {
				if e.IsGlyph() {
					b.WriteRune(Placeholder)
				} else {
					b.WriteString(e.Text)
				}
			}
		}
		return b.String()
	}

	next := 0
	for step := 0; step < 500; step++ {
		switch op := rng.IntN(3); {
		case op == 0 || len(model) == 0:
			next++
			g := &modelGroup{id: fmt.Sprintf("g%d", next)}
			n := 1 + rng.IntN(4)
			for i := 0; i < n; i++ {
				id := ""
				if rng.IntN(2) == 0 {
					id = fmt.Sprintf("%s.e%d", g.id, i)
				}
				if rng.IntN(4) == 0 {
					g.elems = append(g.elems, Glyph(id, "@drawable/icon", Red))
				} else {
					g.elems = append(g.elems, Text(id, contents[rng.IntN(len(contents))], Black))
				}
			}
			require.NoError(t, d.AddGroup(g.id, g.elems))
			model = append(model, g)
		case op == 1:
			g := model[rng.IntN(len(model))]
			e := &g.elems[rng.IntN(len(g.elems))]
			if e.ID == "" || e.IsGlyph() {
				continue
			}
			content := contents[rng.IntN(len(contents))]
			require.NoError(t, d.Modify(e.ID, content))
			e.Text = content
			assert.Equal(t, content, d.TextOf(e.ID))
		default:
			i := rng.IntN(len(model))
			require.NoError(t, d.Remove(model[i].id))
			assert.False(t, d.HasGroup(model[i].id))
			model = append(model[:i], model[i+1:]...)
		}

		require.NoError(t, d.Validate(), "step %d", step)
		require.Equal(t, expectedText(), d.Render().Text, "step %d", step)
	}

	require.NoError(t, d.Destroy())
	assert.Equal(t, 0, glyphs.live())
}

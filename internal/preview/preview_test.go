package preview

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/codalotl/streamfill/internal/billform"
	"github.com/codalotl/streamfill/internal/spandoc"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func billDoc(t *testing.T, icons *Icons) *spandoc.Document {
	t.Helper()
	doc := spandoc.New(spandoc.Options{Glyphs: icons})
	groups := billform.Groups()
	for _, key := range []string{billform.GroupWelcome, billform.FieldType, billform.FieldMoney, billform.FieldRemark} {
		require.NoError(t, doc.AddGroup(key, groups[key]))
	}
	require.NoError(t, doc.Modify(billform.FieldMoney, "26.5"))
	require.NoError(t, doc.Modify(billform.FieldRemark, "Coffee at Starbucks"))
	return doc
}

func TestIcons(t *testing.T) {
	icons := NewIcons(nil)

	icon, ok := icons.Icon("@drawable/ic_poll_black_48dp")
	require.True(t, ok)
	assert.Equal(t, "#", icon)
	icon, ok = icons.Icon("ic_attach_money")
	require.True(t, ok)
	assert.Equal(t, "$", icon)
	_, ok = icons.Icon("@drawable/ic_unknown")
	assert.False(t, ok)

	h, err := icons.Acquire("ic_poll", spandoc.Red, 20, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, icons.Live())
	h.Release()
	h.Release()
	assert.Equal(t, 0, icons.Live())

	_, err = icons.Acquire("ic_unknown", spandoc.Red, 20, 20)
	assert.ErrorIs(t, err, ErrUnknownIcon)
	assert.Equal(t, 0, icons.Live())
}

func TestIcons_DocumentLifecycle(t *testing.T) {
	icons := NewIcons(nil)
	doc := billDoc(t, icons)
	assert.Equal(t, 3, icons.Live())

	require.NoError(t, doc.Remove(billform.FieldRemark))
	assert.Equal(t, 2, icons.Live())

	require.NoError(t, doc.Destroy())
	assert.Equal(t, 0, icons.Live())
}

func TestRender_Plain(t *testing.T) {
	icons := NewIcons(nil)
	doc := billDoc(t, icons)

	got := Render(doc.Render(), icons, Options{})
	assert.Equal(t, "This bill#expense$26.5 yuan, for ✎Coffee at Starbucks", got)

	got = Render(doc.Render(), nil, Options{})
	assert.Equal(t, "This bill*expense*26.5 yuan, for *Coffee at Starbucks", got)
}

func TestRender_Wraps(t *testing.T) {
	icons := NewIcons(nil)
	doc := billDoc(t, icons)

	got := Render(doc.Render(), icons, Options{Width: 20})
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.LessOrEqual(t, TextWidth(line, nil), 20)
	}
	assert.Equal(t, "This bill#expense$26", lines[0])
	assert.Equal(t, ".5 yuan, for ✎Coffee", lines[1])
	// The space that would start the line is dropped.
	assert.Equal(t, "at Starbucks", lines[2])
}

func TestRender_WideGraphemes(t *testing.T) {
	r := spandoc.Rendering{Text: "午餐👍🏽x", Runs: []spandoc.StyleRun{{Start: 0, End: 5, Color: spandoc.Black}}}

	got := Render(r, nil, Options{Width: 4})
	assert.Equal(t, "午餐\n👍🏽x", got)
	assert.Equal(t, 4, TextWidth("午餐", nil))
}

func TestRender_Color(t *testing.T) {
	renderer := lipgloss.NewRenderer(io.Discard)
	renderer.SetColorProfile(termenv.TrueColor)

	icons := NewIcons(nil)
	doc := billDoc(t, icons)
	got := Render(doc.Render(), icons, Options{Color: true, Renderer: renderer})

	assert.Contains(t, got, "38;2;76;175;80")  // #4CAF50 on the type run
	assert.Contains(t, got, "38;2;33;150;243") // #2196F3 on the money run
	assert.True(t, strings.HasPrefix(got, "This bill"), "black runs are uncolored")
	assert.Equal(t, "This bill#expense$26.5 yuan, for ✎Coffee at Starbucks", ansi.Strip(got))
}

func TestEdits(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		want     []Edit
	}{
		{name: "equal", old: "abc", new: "abc", want: nil},
		{name: "append", old: "This bill", new: "This bill via Cash", want: []Edit{{Op: OpInsert, Pos: 9, New: " via Cash"}}},
		{name: "replace number", old: "$12 yuan", new: "$120 yuan", want: []Edit{{Op: OpInsert, Pos: 3, New: "0"}}},
		{name: "delete", old: "a, for x", new: "a", want: []Edit{{Op: OpDelete, Pos: 1, Old: ", for x"}}},
		{name: "replace", old: "type: expense", new: "type: income", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Edits(tt.old, tt.new)
			if tt.want != nil || tt.old == tt.new {
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, tt.new, ApplyEdits(tt.old, got))
		})
	}
}

func TestEdits_RuneOffsets(t *testing.T) {
	old := "账单" + string(spandoc.Placeholder) + "1"
	edits := Edits(old, "账单"+string(spandoc.Placeholder)+"12")
	require.Len(t, edits, 1)
	assert.Equal(t, Edit{Op: OpInsert, Pos: 4, New: "2"}, edits[0])
	assert.Equal(t, "insert", edits[0].Op.String())
}

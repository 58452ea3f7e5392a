package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/codalotl/streamfill/internal/spandoc"
)

// fallbackIcon stands in for glyphs when no Icons are given or a glyph source is unknown.
const fallbackIcon = "*"

// Options control Render.
type Options struct {
	Width int  // wrap width in columns; <= 0 disables wrapping
	Color bool // color runs (Black runs always use the terminal's default foreground)

	Renderer *lipgloss.Renderer // nil means lipgloss's default renderer
	Widths   *WidthOptions
}

type cell struct {
	grapheme
	color spandoc.Color // 0 for uncolored
}

// Render draws r as terminal text. Each glyph run is drawn as its icon (icons may be nil). Lines wrap at grapheme boundaries, and a space that would begin a wrapped line
// is dropped.
func Render(r spandoc.Rendering, icons *Icons, opts Options) string {
	runes := []rune(r.Text)

	var cells []cell
	for _, run := range r.Runs {
		start, end := max(run.Start, 0), min(run.End, len(runes))
		if start >= end {
			continue
		}
		piece := string(runes[start:end])
		if run.Glyph != "" {
			piece = fallbackIcon
			if icons != nil {
				if icon, ok := icons.Icon(run.Glyph); ok {
					piece = icon
				}
			}
		}

		var color spandoc.Color
		if opts.Color && run.Color != spandoc.Black {
			color = run.Color
		}
		for _, g := range splitGraphemes(piece, opts.Widths) {
			cells = append(cells, cell{grapheme: g, color: color})
		}
	}

	lines := wrap(cells, opts.Width)

	renderer := opts.Renderer
	if renderer == nil {
		renderer = lipgloss.DefaultRenderer()
	}
	styles := map[spandoc.Color]lipgloss.Style{}
	styleFor := func(c spandoc.Color) lipgloss.Style {
		st, ok := styles[c]
		if !ok {
			st = renderer.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", c.R(), c.G(), c.B())))
			styles[c] = st
		}
		return st
	}

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j := 0; j < len(line); {
			k := j
			var text strings.Builder
			for k < len(line) && line[k].color == line[j].color {
				text.WriteString(line[k].text)
				k++
			}
			if line[j].color == 0 {
				b.WriteString(text.String())
			} else {
				b.WriteString(styleFor(line[j].color).Render(text.String()))
			}
			j = k
		}
	}
	return b.String()
}

// wrap splits cells into lines no wider than width (a single cell wider than width gets a line of its own). Newline cells end a line and are dropped.
func wrap(cells []cell, width int) [][]cell {
	lines := [][]cell{nil}
	col := 0
	for _, c := range cells {
		if c.text == "\n" || c.text == "\r\n" {
			lines = append(lines, nil)
			col = 0
			continue
		}
		if width > 0 && col > 0 && col+c.width > width {
			lines = append(lines, nil)
			col = 0
			if c.text == " " {
				continue
			}
		}
		last := len(lines) - 1
		lines[last] = append(lines[last], c)
		col += c.width
	}
	return lines
}

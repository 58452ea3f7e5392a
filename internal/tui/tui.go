// Package tui shows a bill being extracted: a spinner while the model streams, the live preview as fields arrive, and the final bill as JSON.
package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/codalotl/streamfill/internal/llmstream"
	"github.com/codalotl/streamfill/internal/partialjson"
	"github.com/codalotl/streamfill/internal/preview"
	"github.com/codalotl/streamfill/internal/spandoc"
)

// ErrInterrupted is returned by Run when the user quits before the stream is done.
var ErrInterrupted = errors.New("tui: interrupted")

// Msg is sent to Run's updates channel. It is one of PreviewMsg or DoneMsg.
type Msg interface {
	tuiMsg()
}

// PreviewMsg carries the latest rendering of the bill.
type PreviewMsg struct {
	Rendering spandoc.Rendering
	Changed   []string
}

// DoneMsg ends the stream. Err is set if extraction failed; otherwise Result is the final bill.
type DoneMsg struct {
	Result    *partialjson.Object
	Rendering spandoc.Rendering
	Usage     llmstream.TokenUsage
	Err       error
}

func (PreviewMsg) tuiMsg() {}
func (DoneMsg) tuiMsg()    {}

// streamClosedMsg is produced when the updates channel closes without a DoneMsg.
type streamClosedMsg struct{}

// Options configure Run.
type Options struct {
	Icons *preview.Icons
	Width int  // preview wrap width before the first window size is known; <= 0 means 80
	Color bool // color the preview
	Title string

	// In and Out override the terminal. Useful for tests.
	In  io.Reader
	Out io.Writer
}

type model struct {
	opts    Options
	updates <-chan Msg

	spinner   spinner.Model
	width     int
	rendering spandoc.Rendering
	changed   []string

	done        bool
	result      *partialjson.Object
	usage       llmstream.TokenUsage
	err         error
	interrupted bool

	titleStyle lipgloss.Style
	faintStyle lipgloss.Style
	errStyle   lipgloss.Style
}

func newModel(opts Options, updates <-chan Msg) *model {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Title == "" {
		opts.Title = "Extracting bill"
	}
	return &model{
		opts:       opts,
		updates:    updates,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:      opts.Width,
		titleStyle: lipgloss.NewStyle().Bold(true),
		faintStyle: lipgloss.NewStyle().Faint(true),
		errStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForUpdate())
}

// waitForUpdate returns a command that blocks until the next update arrives.
func (m *model) waitForUpdate() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return streamClosedMsg{}
		}
		return msg
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.done {
				m.interrupted = true
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case PreviewMsg:
		m.rendering = msg.Rendering
		m.changed = msg.Changed
		return m, m.waitForUpdate()
	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.usage = msg.Usage
		m.err = msg.Err
		if msg.Err == nil {
			m.rendering = msg.Rendering
		}
		return m, tea.Quit
	case streamClosedMsg:
		if !m.done {
			m.done = true
			m.err = errors.New("stream closed")
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) View() string {
	var b strings.Builder

	switch {
	case m.err != nil:
		b.WriteString(m.errStyle.Render("✗ " + m.err.Error()))
	case m.done:
		b.WriteString(m.titleStyle.Render("✓ " + m.opts.Title))
		b.WriteString(m.faintStyle.Render(usageText(m.usage)))
	default:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.titleStyle.Render(m.opts.Title))
		if len(m.changed) > 0 {
			b.WriteString(m.faintStyle.Render(" (" + strings.Join(m.changed, ", ") + ")"))
		}
	}
	b.WriteString("\n\n")

	b.WriteString(preview.Render(m.rendering, m.opts.Icons, preview.Options{Width: m.width, Color: m.opts.Color}))
	b.WriteString("\n")

	if m.result != nil {
		b.WriteString("\n")
		b.WriteString(m.faintStyle.Render(indentJSON(m.result)))
		b.WriteString("\n")
	}
	return b.String()
}

func usageText(u llmstream.TokenUsage) string {
	if u.OutputTokens == 0 {
		return ""
	}
	approx := ""
	if u.Estimated {
		approx = "~"
	}
	return fmt.Sprintf(" · %s%d tokens", approx, u.OutputTokens)
}

func indentJSON(obj *partialjson.Object) string {
	raw, err := obj.MarshalJSON()
	if err != nil {
		return obj.String()
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// Run shows updates until a DoneMsg arrives (or the channel closes), then returns the error carried by the DoneMsg. If the user quits first, Run returns ErrInterrupted;
// if ctx is cancelled, it returns ctx's error.
func Run(ctx context.Context, updates <-chan Msg, opts Options) error {
	m := newModel(opts, updates)

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.In != nil {
		progOpts = append(progOpts, tea.WithInput(opts.In))
	}
	if opts.Out != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Out))
	}

	final, err := tea.NewProgram(m, progOpts...).Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	fm := final.(*model)
	if fm.interrupted {
		return ErrInterrupted
	}
	return fm.err
}

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/codalotl/streamfill/internal/billform"
	"github.com/codalotl/streamfill/internal/config"
	"github.com/codalotl/streamfill/internal/diag"
	"github.com/codalotl/streamfill/internal/partialjson"
	"github.com/codalotl/streamfill/internal/preview"
	"github.com/codalotl/streamfill/internal/session"
	"github.com/codalotl/streamfill/internal/spandoc"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// display decides how previews are drawn on w: colored and as wide as the terminal when w is one, otherwise plain at the configured width.
func display(w io.Writer, cfg config.Config) preview.Options {
	opts := preview.Options{Width: cfg.Preview.Width}
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return opts
	}
	opts.Color = true
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		opts.Width = width
	}
	return opts
}

// billSession is a session over a fresh document, with the glyph provider backing it.
type billSession struct {
	*session.Session
	icons *preview.Icons
}

func (env *environment) newBillSession(cfg config.Config) billSession {
	icons := preview.NewIcons(nil)
	logger := env.log()
	doc := spandoc.New(spandoc.Options{
		Glyphs:          icons,
		Density:         cfg.Preview.Density,
		DefaultTextSize: cfg.Preview.TextSize,
		Logger:          logger,
	})
	s := session.New(session.Options{
		Document:   doc,
		Decoder:    partialjson.Decoder{OnExtraToken: partialjson.LogExtraTokens(logger)},
		Normalizer: &billform.Normalizer{Accounts: cfg.Accounts, NoiseWords: cfg.AccountNoise},
		Logger:     logger,
		Now:        env.now,
	})
	return billSession{Session: s, icons: icons}
}

// Close closes the session and reports glyphs that were never released.
func (b billSession) Close(env *environment) {
	b.Session.Close()
	if n := b.icons.Live(); n != 0 {
		env.log().Warn("glyph handles leaked", "live", n)
	}
}

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// resultFlags select what is emitted once a bill is final.
type resultFlags struct {
	url  bool // print the add-bill deep link
	copy bool // copy the deep link to the clipboard
}

func (f *resultFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.url, "url", false, "print the bookkeeping app deep link for the bill")
	cmd.Flags().BoolVar(&f.copy, "copy", false, "copy the bookkeeping app deep link to the clipboard")
}

// writeResult prints the final bill as JSON, followed by its deep link if requested. The link is built from the fields as displayed.
func (env *environment) writeResult(cfg config.Config, bs billSession, obj *partialjson.Object, flags resultFlags) error {
	raw, err := obj.MarshalJSON()
	if err != nil {
		return err
	}
	if _, err := env.out.Write(append(raw, '\n')); err != nil {
		return err
	}
	if !flags.url && !flags.copy {
		return nil
	}

	link := billform.AddBillURL(bs.Fields(), cfg.Book)
	if flags.url {
		fmt.Fprintln(env.out, link)
	}
	if flags.copy {
		if err := writeClipboard(link); err != nil {
			return diag.LogWrappedErr(env.log(), "copy deep link", err)
		}
		fmt.Fprintln(env.err, "Deep link copied to clipboard.")
	}
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/codalotl/streamfill/internal/billform"
	"github.com/codalotl/streamfill/internal/llmstream"
	"github.com/codalotl/streamfill/internal/partialjson"
	"github.com/codalotl/streamfill/internal/preview"
	"github.com/codalotl/streamfill/internal/session"
	"github.com/codalotl/streamfill/internal/tui"
	"github.com/spf13/cobra"
)

// runTUI is swapped out in tests.
var runTUI = tui.Run

func newExtractCommand(env *environment) *cobra.Command {
	var useTUI bool
	var debounce time.Duration
	var flags resultFlags
	cmd := &cobra.Command{
		Use:   "extract <ocr-file>",
		Short: "Extract a bill from OCR output with the configured model, previewing it live",
		Long: `Extract sends OCR output (a JSON array of {"label","confidence"} objects, or plain
text with one line per label) to the configured model and previews the bill as the
answer streams in. The final bill is printed as JSON.`,
		Args: args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			data, err := env.readInput(a)
			if err != nil {
				return err
			}
			lines, err := billform.ParseOCR(data)
			if err != nil {
				return err
			}
			userContent, err := billform.EncodeOCR(lines)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			client := llmstream.NewClient(llmstream.Config{
				BaseURL:     cfg.Provider.BaseURL,
				APIKey:      cfg.Provider.APIKey,
				Model:       cfg.Provider.Model,
				MaxTokens:   cfg.Provider.MaxTokens,
				Temperature: cfg.Provider.Temperature,
				TopP:        cfg.Provider.TopP,
				MaxRetries:  2,
				Debounce:    debounce,
			}, env.log())
			events := client.Stream(ctx, llmstream.Request{SystemPrompt: billform.SystemPrompt, UserContent: userContent})

			bs := env.newBillSession(cfg)
			defer bs.Close(env)
			opts := display(env.out, cfg)

			var obj *partialjson.Object
			if useTUI {
				obj, err = extractWithTUI(ctx, cancel, bs, events, opts)
			} else {
				obj, err = bs.Run(ctx, events, func(u session.Update) {
					fmt.Fprintln(env.out, preview.Render(u.Rendering, bs.icons, opts))
					if u.Final {
						env.log().Info("bill extracted", "output_tokens", u.Usage.OutputTokens, "estimated", u.Usage.Estimated)
					}
				})
			}
			if err != nil {
				return err
			}
			return env.writeResult(cfg, bs, obj, flags)
		},
	}
	cmd.Flags().BoolVar(&useTUI, "tui", false, "show an interactive preview instead of printing each update")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "minimum time between preview updates (ex: 50ms)")
	flags.register(cmd)
	return cmd
}

// extractWithTUI runs the session on its own goroutine, forwarding updates to the TUI. Quitting the TUI cancels the stream.
func extractWithTUI(ctx context.Context, cancel context.CancelFunc, bs billSession, events <-chan llmstream.Event, opts preview.Options) (*partialjson.Object, error) {
	updates := make(chan tui.Msg, 16)
	send := func(m tui.Msg) {
		select {
		case updates <- m:
		case <-ctx.Done():
		}
	}

	var (
		wg     sync.WaitGroup
		obj    *partialjson.Object
		runErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(updates)
		var final session.Update
		obj, runErr = bs.Run(ctx, events, func(u session.Update) {
			if u.Final {
				final = u
				return
			}
			send(tui.PreviewMsg{Rendering: u.Rendering, Changed: u.Changed})
		})
		send(tui.DoneMsg{Result: obj, Rendering: final.Rendering, Usage: final.Usage, Err: runErr})
	}()

	tuiErr := runTUI(ctx, updates, tui.Options{Icons: bs.icons, Width: opts.Width, Color: opts.Color})
	cancel()
	wg.Wait()

	switch {
	case errors.Is(tuiErr, tui.ErrInterrupted):
		return nil, tuiErr
	case runErr != nil:
		return nil, runErr
	case tuiErr != nil:
		return nil, tuiErr
	}
	return obj, nil
}

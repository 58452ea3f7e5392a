package cli

import (
	"fmt"

	"github.com/codalotl/streamfill/internal/preview"
	"github.com/spf13/cobra"
)

func newReplayCommand(env *environment) *cobra.Command {
	var chunk int
	var edits bool
	var flags resultFlags
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Replay a recorded model answer through a live preview",
		Long: `Replay feeds growing prefixes of a recorded model answer (chunk runes at a time)
through a bill session, printing the preview each time a field changes, then
finalizes the complete answer and prints the resulting bill as JSON.`,
		Args: args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			if chunk <= 0 {
				return usageError{err: fmt.Errorf("--chunk must be > 0 (got %d)", chunk)}
			}
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			data, err := env.readInput(a)
			if err != nil {
				return err
			}

			bs := env.newBillSession(cfg)
			defer bs.Close(env)
			opts := display(env.out, cfg)

			runes := []rune(string(data))
			prevText := ""
			for n := chunk; ; n += chunk {
				n = min(n, len(runes))
				u, err := bs.Apply(string(runes[:n]))
				if err != nil {
					return err
				}
				if len(u.Changed) > 0 {
					if edits {
						for _, e := range preview.Edits(prevText, u.Rendering.Text) {
							fmt.Fprintf(env.out, "  %s@%d %q -> %q\n", e.Op, e.Pos, e.Old, e.New)
						}
					}
					prevText = u.Rendering.Text
					fmt.Fprintln(env.out, preview.Render(u.Rendering, bs.icons, opts))
				}
				if n == len(runes) {
					break
				}
			}

			obj, err := bs.Finish(string(data), env.now())
			if err != nil {
				return err
			}
			final := bs.Rendering()
			if final.Text != prevText {
				if edits {
					for _, e := range preview.Edits(prevText, final.Text) {
						fmt.Fprintf(env.out, "  %s@%d %q -> %q\n", e.Op, e.Pos, e.Old, e.New)
					}
				}
				fmt.Fprintln(env.out, preview.Render(final, bs.icons, opts))
			}
			return env.writeResult(cfg, bs, obj, flags)
		},
	}
	cmd.Flags().IntVar(&chunk, "chunk", 8, "runes added per step")
	cmd.Flags().BoolVar(&edits, "edits", false, "also print the character edits between successive previews")
	flags.register(cmd)
	return cmd
}

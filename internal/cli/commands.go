package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/codalotl/streamfill/internal/config"
	"github.com/codalotl/streamfill/internal/logging"
	"github.com/codalotl/streamfill/internal/partialjson"
	"github.com/spf13/cobra"
)

// environment is the I/O and lookup context shared by all commands of one Run.
type environment struct {
	in  io.Reader
	out io.Writer
	err io.Writer
	now func() time.Time

	homeDir string
	workDir string

	verbose bool
	logger  *slog.Logger
}

func (e *environment) log() *slog.Logger {
	if e.logger == nil {
		e.logger = logging.New(e.err, e.verbose)
	}
	return e.logger
}

func (e *environment) loadConfig() (config.Config, error) {
	cfg, err := config.Load(config.Options{HomeDir: e.homeDir, WorkDir: e.workDir})
	if err != nil {
		return config.Config{}, err
	}
	e.log().Debug("configuration loaded", "sources", cfg.Sources)
	return cfg, nil
}

// readInput reads the file named by args[0], or e.in if there is none or it is "-".
func (e *environment) readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(e.in)
	}
	return os.ReadFile(args[0])
}

func newRootCommand(env *environment) *cobra.Command {
	root := &cobra.Command{
		Use:           "streamfill",
		Short:         "Fill a live bill preview from a model's streamed JSON answer",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&env.verbose, "verbose", "v", false, "write debug logs to stderr")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	root.AddCommand(
		newDecodeCommand(env),
		newReplayCommand(env),
		newExtractCommand(env),
		newConfigCommand(env),
	)
	return root
}

// args wraps a cobra arg validator so its failures are usage errors.
func args(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := validate(cmd, a); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}

func newDecodeCommand(env *environment) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode possibly incomplete JSON and show the value, remainder, and error",
		Long: `Decode reads JSON text from a file (or stdin) and parses it the way a streaming
snapshot is parsed: incomplete strings, numbers, and containers yield the value
recognized so far. With --strict, an incomplete string is an error and the command
fails if the parse reports any error.`,
		Args: args(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			data, err := env.readInput(a)
			if err != nil {
				return err
			}
			dec := partialjson.Decoder{Strict: strict, OnExtraToken: partialjson.LogExtraTokens(env.log())}
			out := dec.Parse(string(data))

			fmt.Fprintf(env.out, "value: %s\n", out.Value.String())
			fmt.Fprintf(env.out, "remainder: %q\n", out.Remainder)
			if out.Err == nil {
				fmt.Fprintln(env.out, "error: none")
				return nil
			}
			fmt.Fprintf(env.out, "error: %s\n", out.Err.Kind)
			if strict {
				return &partialjson.DecodeError{Kind: out.Err.Kind, Remainder: out.Remainder}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat incomplete input as an error")
	return cmd
}

func newConfigCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration (API key redacted)",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, a []string) error {
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			return config.WriteJSON(env.out, cfg)
		},
	}
}

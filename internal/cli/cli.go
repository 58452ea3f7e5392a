// Package cli implements the streamfill command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"
)

// Version is the streamfill version. It is a var (not a const) so build tooling can override it (for example via `-ldflags "-X .../internal/cli.Version=1.2.3"`).
var Version = "0.1.0"

// In/Out/Err override standard I/O. If nil, defaults are used. Overriding is useful for testing.
type RunOptions struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// HomeDir and WorkDir override where configuration files are looked up.
	HomeDir string
	WorkDir string

	Now func() time.Time // nil means time.Now
}

// Run runs the CLI with args (typically you'd use os.Args).
//
// It returns a recommended exit code (0, 1, or 2) and an error, if any:
//   - 0 -> err == nil
//   - 1 -> err != nil, but the structure of args is sound (flags are correct, etc).
//   - 2 -> err != nil, args parse error or misuse of flags, etc.
//
// Note that in cases of errors, Run has already displayed an error message to opts.Err || Stderr. Callers may use os.Exit with the exit code.
func Run(args []string, opts *RunOptions) (int, error) {
	argv := args
	if len(argv) > 0 {
		argv = argv[1:]
	}

	env := &environment{
		in:  os.Stdin,
		out: os.Stdout,
		err: os.Stderr,
		now: time.Now,
	}
	if opts != nil {
		if opts.In != nil {
			env.in = opts.In
		}
		if opts.Out != nil {
			env.out = opts.Out
		}
		if opts.Err != nil {
			env.err = opts.Err
		}
		if opts.Now != nil {
			env.now = opts.Now
		}
		env.homeDir = opts.HomeDir
		env.workDir = opts.WorkDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCommand(env)
	root.SetArgs(argv)
	root.SetIn(env.in)
	root.SetOut(env.out)
	root.SetErr(env.err)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0, nil
	}

	fmt.Fprintf(env.err, "Error: %v\n", err)
	if isUsageError(err) {
		fmt.Fprintf(env.err, "Run '%s --help' for usage.\n", root.Name())
		return 2, err
	}
	return 1, err
}

// usageError marks errors caused by malformed args or flags.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func isUsageError(err error) bool {
	var ue usageError
	if errors.As(err, &ue) {
		return true
	}
	// cobra reports unknown subcommands with a plain error.
	return strings.HasPrefix(err.Error(), "unknown command")
}

package diag

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// Err is an error with a log-friendly message, slog-style attributes, and an optional wrapped cause.
type Err struct {
	Message string
	wrapped error
	attrs   []any
}

// Error satisfies the error interface. All aspects are serialized: msg, attrs, and the wrapped error.
func (e *Err) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)

	if len(e.attrs) > 0 {
		b.WriteString("[")
		writeAttrs(&b, e.attrs)
		b.WriteString("]")
	}

	if e.wrapped != nil {
		b.WriteString(" via ")
		b.WriteString(e.wrapped.Error())
	}

	return b.String()
}

func (e *Err) Unwrap() error {
	return e.wrapped
}

// NewErr returns a new error (unlogged). args is in the same format as slog's args to Info: key/values or slog.Attrs.
func NewErr(msg string, args ...any) error {
	return &Err{Message: msg, attrs: args}
}

// Wrap returns a new error that wraps `wrapped`. errors.Is and errors.As see through it, so sentinel errors can be wrapped with context.
func Wrap(msg string, wrapped error, args ...any) error {
	if wrapped == nil {
		// NOTE: a footgun, but panicking here would take down a live preview over a logging mistake.
		wrapped = errors.New("nil wrapped error. WARNING: you should not call Wrap with a nil error")
	}
	return &Err{Message: msg, wrapped: wrapped, attrs: args}
}

// LogNewErr creates a new error with msg and args, logs it, and returns it.
func LogNewErr(logger *slog.Logger, msg string, args ...any) error {
	return LogErr(logger, NewErr(msg, args...))
}

// LogWrappedErr wraps `wrapped` with msg and args, logs it, and returns it.
func LogWrappedErr(logger *slog.Logger, msg string, wrapped error, args ...any) error {
	return LogErr(logger, Wrap(msg, wrapped, args...))
}

// LogErr logs err to logger (if both are non-nil) and returns err. It enables logging and returning in one line:
//
//	return diag.LogErr(logger, errors.New("myerr"))
//	// or...
//	return diag.LogErr(logger, diag.NewErr("myerr", "errkv", v), "otherkv", 3)
//
// When err is an *Err, its attrs are logged first, then a "via" attr for the wrapped error, then args.
func LogErr(logger *slog.Logger, err error, args ...any) error {
	if logger == nil || err == nil {
		return err
	}

	e, ok := err.(*Err)
	if !ok {
		logger.Error(err.Error(), args...)
		return err
	}

	allArgs := make([]any, 0, len(e.attrs)+len(args)+1)
	allArgs = append(allArgs, e.attrs...)
	if e.wrapped != nil {
		allArgs = append(allArgs, slog.String("via", e.wrapped.Error()))
	}
	allArgs = append(allArgs, args...)

	logger.Error(e.Message, allArgs...)
	return err
}

// writeAttrs writes attrs (slog's key/value protocol) to b in the Text handler's key=value format. Ex: `num=3 str="hi"`.
func writeAttrs(b *strings.Builder, attrs []any) {
	if len(attrs) == 0 {
		return
	}

	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey || a.Key == slog.MessageKey {
				return slog.Attr{}
			}
			return a
		},
	}

	handler := slog.NewTextHandler(&noNewlineWriter{w: b}, opts)
	logger := slog.New(handler)
	logger.Log(context.Background(), slog.LevelDebug, "", attrs...)
}

// noNewlineWriter strips a single trailing newline from each write.
type noNewlineWriter struct {
	w io.Writer
}

func (n *noNewlineWriter) Write(p []byte) (int, error) {
	if len(p) > 0 && p[len(p)-1] == '\n' {
		// slog.TextHandler makes a single Write per record, ending in a newline. Report the full length so the handler doesn't see a short write.
		written, err := n.w.Write(p[:len(p)-1])
		if err == nil {
			return len(p), nil
		}
		return written, err
	}
	return n.w.Write(p)
}

package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// EnvLogFile names the environment variable holding the path that logs are appended to.
const EnvLogFile = "STREAMFILL_LOG_FILE"

// New returns the process logger. Records are appended as text to the file named by STREAMFILL_LOG_FILE.
//
// If STREAMFILL_LOG_FILE is unset/empty or can't be opened as a file, and verbose is false, logs are discarded. If verbose is true, debug-level records are also
// written to stderr.
func New(stderr io.Writer, verbose bool) *slog.Logger {
	var handlers []slog.Handler

	if path := os.Getenv(EnvLogFile); path != "" {
		handlers = append(handlers, slog.NewTextHandler(&appendFile{path: path}, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	if verbose && stderr != nil {
		handlers = append(handlers, slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	switch len(handlers) {
	case 0:
		return slog.New(slog.DiscardHandler)
	case 1:
		return slog.New(handlers[0])
	default:
		return slog.New(fanout(handlers))
	}
}

// appendFile opens, writes, and closes path on every write, so a log file removed or rotated mid-session is recreated.
type appendFile struct {
	mu   sync.Mutex
	path string
}

func (a *appendFile) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		// Unwritable paths are a no-op, as if the write happened.
		return len(p), nil
	}
	defer f.Close()
	return f.Write(p)
}

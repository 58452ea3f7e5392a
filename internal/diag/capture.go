package diag

import (
	"context"
	"log/slog"
	"sync"
)

// Record is one captured log record.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// Capture is an in-memory slog.Handler. It's meant for tests that need to assert a diagnostic was emitted.
type Capture struct {
	mu      sync.Mutex
	records []Record
}

// NewCapture returns a logger that writes into a new Capture (at all levels), and the Capture.
func NewCapture() (*slog.Logger, *Capture) {
	c := &Capture{}
	return slog.New(c), c
}

func (c *Capture) Enabled(context.Context, slog.Level) bool { return true }

func (c *Capture) Handle(_ context.Context, r slog.Record) error {
	rec := Record{Level: r.Level, Message: r.Message, Attrs: map[string]string{}}
	r.Attrs(func(a slog.Attr) bool {
		rec.Attrs[a.Key] = a.Value.String()
		return true
	})
	c.mu.Lock()
	c.records = append(c.records, rec)
	c.mu.Unlock()
	return nil
}

// NOTE: attrs and groups from With* are dropped; callers in this module log flat attrs per call.
func (c *Capture) WithAttrs([]slog.Attr) slog.Handler { return c }
func (c *Capture) WithGroup(string) slog.Handler      { return c }

// Records returns a copy of everything captured so far.
func (c *Capture) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Messages returns the message of each captured record at level or above.
func (c *Capture) Messages(level slog.Level) []string {
	var out []string
	for _, r := range c.Records() {
		if r.Level >= level {
			out = append(out, r.Message)
		}
	}
	return out
}

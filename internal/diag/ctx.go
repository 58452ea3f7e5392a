package diag

import "log/slog"

// Ctx carries a logger into long-lived types. A nil Logger makes every method a no-op (errors are still returned).
type Ctx struct {
	Logger *slog.Logger
}

func NewCtx(logger *slog.Logger) Ctx {
	return Ctx{Logger: logger}
}

func (c Ctx) LogNewErr(msg string, args ...any) error {
	return LogNewErr(c.Logger, msg, args...)
}

func (c Ctx) LogWrappedErr(msg string, wrapped error, args ...any) error {
	return LogWrappedErr(c.Logger, msg, wrapped, args...)
}

func (c Ctx) Log(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Info(msg, args...)
	}
}

func (c Ctx) Debug(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Debug(msg, args...)
	}
}

// Warn records a diagnostic: something unexpected that was recovered from locally.
func (c Ctx) Warn(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Warn(msg, args...)
	}
}

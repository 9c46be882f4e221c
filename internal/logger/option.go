package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// scopedCore replaces the level check of the core it wraps, so a derived
// logger can be quieter or more verbose than the shared sink.
type scopedCore struct {
	zapcore.Core

	// level is the minimum level this logger writes.
	level zapcore.Level
}

// Enabled reports whether lvl passes the scoped level.
func (c *scopedCore) Enabled(lvl zapcore.Level) bool {
	return c.level.Enabled(lvl)
}

// Check adds the scoped core to ce when the entry passes the scoped level,
// bypassing the wrapped core's own level.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *scopedCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(ent.Level) {
		return ce
	}

	return ce.AddCore(ent, c)
}

// With keeps the scoped level on child loggers that add fields.
//
//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *scopedCore) With(fields []zapcore.Field) zapcore.Core {
	return &scopedCore{
		Core:  c.Core.With(fields),
		level: c.level,
	}
}

// WithLevel returns a zap option that pins a logger to lvl regardless of
// the level of the core it was built on. See WithMinLevel for the context form.
//
//nolint:ireturn,nolintlint // Returning zap.Option is intended for zap integration.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &scopedCore{
			Core:  core,
			level: lvl,
		}
	})
}

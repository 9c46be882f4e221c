// Package logger wraps zap for the scheduler binaries:
//   - a global sugared logger writing a console encoding to standard error,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration and parsing utilities,
//   - leveled helpers that log through the context logger (InfoKV, ErrorKV, ...),
//   - WithMinLevel for a logger scoped to its own level.
//
// Services take the logger from their context, so every dispatcher,
// applier and display worker line carries its component name.
package logger

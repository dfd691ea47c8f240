// Package logger defines the logging contract shared by every simulation
// component. Core packages receive a Logger at construction and never touch
// a concrete backend; the zerolog adapter lives in infra/logger.
package logger

// Logger is the leveled logging interface injected into agents, the
// coordinator, the engine and the outer surfaces.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a debug message with structured fields, used where a
	// format string would bury the interesting values (bid sets, routes).
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// StructuredLogger is the subset of Logger for adapters that only forward
// structured debug output.
type StructuredLogger interface {
	Debugw(msg string, fields map[string]any)
}

// Package logger provides the zerolog-backed implementation of the core
// logging contract, plus a no-op logger for tests.
package logger

import corelogger "github.com/parcelops/fleetsim/core/logger"

// Logger re-exports the core interface so adapters and tests can depend on
// this package alone.
type Logger = corelogger.Logger

// NopLogger swallows everything. Tests use it to keep simulation output
// quiet.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns the logger for one simulation component ("engine", "depot",
// "api", ...). Output format follows the APP_ENV environment variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// Package logx is the structured diagnostic sink every core component logs
// through: the mode manager's corrupt-mode/equation-compile-error lines,
// the accelerometer's failed-read notices, and anything else the firmware
// would have pushed over its serial console outside of a command response.
// No logging library appears anywhere in the retrieval pack (the teacher's
// own host tool uses bare fmt.Println, and no example repo imports a
// structured logger), so this wraps the standard library's log package
// rather than reaching for an unrepresented dependency; see DESIGN.md.
package logx

import "log"

// Logger writes a pre-formatted diagnostic line. Every package that needs
// to log (mode, accel, ...) depends on this narrow interface rather than
// *Sink directly, so tests can substitute a recording double.
type Logger interface {
	Logf(format string, args ...any)
}

// Sink writes lines through the standard library logger. The firmware's
// diagnostic lines are already complete JSON objects by the time they
// reach Logf (callers build them with fmt-style verbs), so Sink only adds
// a destination and a timestamp prefix, matching how log.Logger is used
// wherever the corpus does reach for it.
type Sink struct {
	logger *log.Logger
}

// New wraps a standard library logger. Pass log.Default() for the
// process-wide logger, or a custom *log.Logger (e.g. one writing to the
// USB serial line) in hosted tests and the host harness.
func New(logger *log.Logger) *Sink {
	return &Sink{logger: logger}
}

// Logf formats and writes one diagnostic line.
func (s *Sink) Logf(format string, args ...any) {
	s.logger.Printf(format, args...)
}

// Discard is a Logger that drops every line, for tests and components that
// don't care about diagnostics.
type Discard struct{}

func (Discard) Logf(format string, args ...any) {}

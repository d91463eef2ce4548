package ccapi

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a structured logger for pipeline diagnostics, discarding
// output by default. A Context overrides this with a caller-supplied
// logrus.FieldLogger when verbose diagnostics are wanted. The only entries
// emitted through it come from opt.Run, which attaches "stage"/"function"
// fields via StageLogger; the register allocator does not log.
func NewLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// StageLogger returns a logger scoped to one pipeline stage and function,
// so call sites don't repeat WithField boilerplate.
func StageLogger(base logrus.FieldLogger, stage, function string) *logrus.Entry {
	return base.WithFields(logrus.Fields{"stage": stage, "function": function})
}

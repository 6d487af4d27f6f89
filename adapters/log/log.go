// Package stdlogadapter implements the admission layer Logger interface
// on top of the standard library log package.
package stdlogadapter

import (
	"log"

	"github.com/jassus213/affilify-gate/auth"
	"github.com/jassus213/affilify-gate/ratelimiter"
)

var (
	_ ratelimiter.Logger = (*StdLogger)(nil)
	_ auth.Logger        = (*StdLogger)(nil)
)

// StdLogger writes admission events through a *log.Logger with a level tag.
type StdLogger struct {
	logger *log.Logger
	debug  bool
}

// New creates a new StdLogger. If nil is passed, uses the default logger.
// Debug messages are dropped unless debug is true.
func New(l *log.Logger, debug bool) *StdLogger {
	if l == nil {
		l = log.Default()
	}
	return &StdLogger{
		logger: l,
		debug:  debug,
	}
}

// Debugf logs a debug-level message.
func (s *StdLogger) Debugf(format string, args ...interface{}) {
	if !s.debug {
		return
	}
	s.logger.Printf("[DEBUG] admission: "+format, args...)
}

// Warnf logs a warn-level message.
func (s *StdLogger) Warnf(format string, args ...interface{}) {
	s.logger.Printf("[WARN] admission: "+format, args...)
}

// Errorf logs an error-level message.
func (s *StdLogger) Errorf(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] admission: "+format, args...)
}

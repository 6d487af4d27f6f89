// Package logrusadapter implements the admission layer Logger interface
// on top of github.com/sirupsen/logrus.
package logrusadapter

import (
	"github.com/sirupsen/logrus"

	"github.com/jassus213/affilify-gate/auth"
	"github.com/jassus213/affilify-gate/ratelimiter"
)

var (
	_ ratelimiter.Logger = (*LogrusLogger)(nil)
	_ auth.Logger        = (*LogrusLogger)(nil)
)

// LogrusLogger writes admission events to a logrus entry tagged
// component=admission.
type LogrusLogger struct {
	entry *logrus.Entry
}

// New creates a new LogrusLogger. If nil is passed, a fresh logrus.Logger
// writing to stderr is used.
func New(l *logrus.Logger) *LogrusLogger {
	if l == nil {
		l = logrus.New()
	}
	return &LogrusLogger{
		entry: l.WithField("component", "admission"),
	}
}

// With returns a logger carrying an extra field on every entry.
func (l *LogrusLogger) With(key string, value interface{}) *LogrusLogger {
	return &LogrusLogger{entry: l.entry.WithField(key, value)}
}

// Debugf logs a debug-level message.
func (l *LogrusLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Warnf logs a warn-level message.
func (l *LogrusLogger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Errorf logs an error-level message.
func (l *LogrusLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

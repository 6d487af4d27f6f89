// Package zapadapter implements the admission layer Logger interface on top
// of go.uber.org/zap.
package zapadapter

import (
	"go.uber.org/zap"

	"github.com/jassus213/affilify-gate/auth"
	"github.com/jassus213/affilify-gate/ratelimiter"
)

var (
	_ ratelimiter.Logger = (*ZapLogger)(nil)
	_ auth.Logger        = (*ZapLogger)(nil)
)

// ZapLogger is an adapter that implements the ratelimiter.Logger and
// auth.Logger interfaces using a zap.SugaredLogger internally.
type ZapLogger struct {
	logger *zap.SugaredLogger
}

// New creates a new ZapLogger from a zap.Logger.
//
// If a nil logger is provided, it uses zap.NewNop() internally, which
// is a no-op logger that discards all messages.
//
// Example:
//
//	zapLogger := zapadapter.New(logger.Named("admission"))
func New(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{logger: l.Sugar()}
}

// Debugf logs a debug-level message with formatting.
//
// Example:
//
//	zapLogger.Debugf("Request denied for key '%s'", key)
func (z *ZapLogger) Debugf(format string, args ...interface{}) {
	z.logger.Debugf(format, args...)
}

// Warnf logs a warn-level message with formatting. Fail-open events are
// reported at this level.
func (z *ZapLogger) Warnf(format string, args ...interface{}) {
	z.logger.Warnf(format, args...)
}

// Errorf logs an error-level message with formatting.
func (z *ZapLogger) Errorf(format string, args ...interface{}) {
	z.logger.Errorf(format, args...)
}

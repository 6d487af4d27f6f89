// Package zerologadapter implements the admission layer Logger interface
// on top of github.com/rs/zerolog.
package zerologadapter

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jassus213/affilify-gate/auth"
	"github.com/jassus213/affilify-gate/ratelimiter"
)

var (
	_ ratelimiter.Logger = (*ZerologLogger)(nil)
	_ auth.Logger        = (*ZerologLogger)(nil)
)

// ZerologLogger writes admission events as zerolog events with
// component=admission.
type ZerologLogger struct {
	logger zerolog.Logger
}

// New creates a new ZerologLogger. If nil is passed, uses zerolog's global logger.
func New(l *zerolog.Logger) *ZerologLogger {
	if l == nil {
		l = &log.Logger
	}
	return &ZerologLogger{
		logger: l.With().Str("component", "admission").Logger(),
	}
}

// Debugf logs a debug-level message.
func (z *ZerologLogger) Debugf(format string, args ...interface{}) {
	z.logger.Debug().Msgf(format, args...)
}

// Warnf logs a warn-level message.
func (z *ZerologLogger) Warnf(format string, args ...interface{}) {
	z.logger.Warn().Msgf(format, args...)
}

// Errorf logs an error-level message.
func (z *ZerologLogger) Errorf(format string, args ...interface{}) {
	z.logger.Error().Msgf(format, args...)
}

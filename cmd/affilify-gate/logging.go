package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	stdlogadapter "github.com/jassus213/affilify-gate/adapters/log"
	logrusadapter "github.com/jassus213/affilify-gate/adapters/logrus"
	zapadapter "github.com/jassus213/affilify-gate/adapters/zap"
	zerologadapter "github.com/jassus213/affilify-gate/adapters/zerolog"
	"github.com/jassus213/affilify-gate/config"
	"github.com/jassus213/affilify-gate/ratelimiter"
)

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zcfg.Build()
}

// newAdmissionLogger returns the logger handed to limiters, the gate and
// middleware. The zap backend shares the server logger; the others write to w.
func newAdmissionLogger(cfg config.LogConfig, server *zap.Logger, name string, w io.Writer) (ratelimiter.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	level := strings.ToLower(cfg.Level)
	if level == "" {
		level = "info"
	}

	switch cfg.Backend {
	case "", config.LogBackendZap:
		return zapadapter.New(server.Named(name)), nil

	case config.LogBackendZerolog:
		zl, err := zerolog.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		out := w
		if cfg.Development {
			out = zerolog.ConsoleWriter{Out: w}
		}
		logger := zerolog.New(out).Level(zl).With().Timestamp().Str("logger", name).Logger()
		return zerologadapter.New(&logger), nil

	case config.LogBackendLogrus:
		ll, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		logger := logrus.New()
		logger.SetOutput(w)
		logger.SetLevel(ll)
		if !cfg.Development {
			logger.SetFormatter(&logrus.JSONFormatter{})
		}
		return logrusadapter.New(logger).With("logger", name), nil

	case config.LogBackendStd:
		return stdlogadapter.New(log.New(w, name+" ", log.LstdFlags|log.Lmsgprefix), level == "debug"), nil

	default:
		return nil, fmt.Errorf("unknown log backend %q", cfg.Backend)
	}
}

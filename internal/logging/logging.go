// Package logging builds the zap logger used across the demo binary
// and adapts it to the small Logger interface package broker depends
// on, so the broker itself never imports zap directly.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-shaped zap logger at the given level
// ("debug", "info", "warn", "error").
func New(level string) (*zap.Logger, error) {
	lvl := zap.InfoLevel
	if level != "" {
		if err := lvl.Set(level); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(lvl),
		Development: false,
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stack",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return cfg.Build()
}

// BrokerAdapter wraps a *zap.SugaredLogger to satisfy broker.Logger.
type BrokerAdapter struct {
	sugar *zap.SugaredLogger
}

func NewBrokerAdapter(l *zap.Logger) *BrokerAdapter {
	return &BrokerAdapter{sugar: l.Sugar()}
}

func (a *BrokerAdapter) Debugf(format string, args ...interface{}) { a.sugar.Debugf(format, args...) }
func (a *BrokerAdapter) Infof(format string, args ...interface{})  { a.sugar.Infof(format, args...) }
func (a *BrokerAdapter) Warnf(format string, args ...interface{})  { a.sugar.Warnf(format, args...) }
func (a *BrokerAdapter) Errorf(format string, args ...interface{}) { a.sugar.Errorf(format, args...) }

// Package logging builds the service's zap logger.
//
// The level is held in a zap.AtomicLevel so the config watcher can raise or
// lower verbosity without restarting the process.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a config level name to a zapcore.Level. Unknown names
// fall back to info.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New returns a JSON logger writing to stdout at the given level.
func New(level string) (*zap.Logger, zap.AtomicLevel) {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(level string, w io.Writer) (*zap.Logger, zap.AtomicLevel) {
	atom := zap.NewAtomicLevelAt(ParseLevel(level))

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		atom,
	)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), atom
}

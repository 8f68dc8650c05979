// Package logging builds the structured logger used by cmd/mqttc:
// structured fields and
// leveled calls via zap, backed by a lumberjack-rotated file when one is
// configured, alongside a human-readable console encoder for interactive
// use.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New. A zero value is valid: it logs through the
// human-readable console encoder at Info level to stderr only.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Empty means Info.
	Level string

	// FilePath, if set, additionally writes rotated JSON logs there.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Console, when true, adds a human-readable console encoder writing to
	// stderr alongside (or instead of, if FilePath is empty) the file sink.
	Console bool
}

// New builds a *zap.Logger per opts. The engine package does not log;
// cmd/mqttc logs the events its ClientSink receives and the transport
// events it relays to the engine. Ping timeouts are not logged.
func New(opts Options) (*zap.Logger, error) {
	level := parseLevel(opts.Level)

	var cores []zapcore.Core

	if opts.Console || opts.FilePath == "" {
		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level))
	}

	if opts.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    nonZero(opts.MaxSizeMB, 50),
			MaxBackups: nonZero(opts.MaxBackups, 5),
			MaxAge:     nonZero(opts.MaxAgeDays, 28),
			Compress:   true,
		}
		jsonEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(rotator), level))
	}

	core := zapcore.NewTee(cores...)
	return zap.New(core, zap.AddCaller()), nil
}

func nonZero(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

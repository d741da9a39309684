// Package logging wraps zap behind the Debug/Info/Warn/Error printf
// call surface the rest of textsync uses, with a rotating file core
// alongside the console core.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a printf-style facade over a *zap.SugaredLogger. Grounded
// on zfogg-sidechain/backend/internal/logger/logger.go's console+file
// tee core, kept call-surface-compatible with the teacher's
// pkg/logger/logger.go (Debug/Info/Error taking a format and args).
type Logger struct {
	zap *zap.Logger
	sug *zap.SugaredLogger
}

// Options configures New.
type Options struct {
	// Level: "debug", "info", "warn", or "error". Defaults to "info".
	Level string
	// File is the rotating log file path. Empty disables file output.
	File string
	// MaxSizeMB, MaxBackups, MaxAgeDays tune the lumberjack roller.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a Logger from opts. Zero-value fields fall back to the
// same defaults the teacher's LOG_LEVEL handling used (info level).
func New(opts Options) (*Logger, error) {
	level := parseLevel(opts.Level)

	consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	consoleCore := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level)

	cores := []zapcore.Core{consoleCore}

	if opts.File != "" {
		jsonConfig := zap.NewProductionEncoderConfig()
		jsonConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		jsonEncoder := zapcore.NewJSONEncoder(jsonConfig)

		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 100),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 7),
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(jsonEncoder, fileWriter, level))
	}

	zl := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return &Logger{zap: zl, sug: zl.Sugar()}, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Debug logs a debug-level message, gated by the configured level.
func (l *Logger) Debug(format string, args ...interface{}) { l.sug.Debugf(format, args...) }

// Info logs an info-level message.
func (l *Logger) Info(format string, args ...interface{}) { l.sug.Infof(format, args...) }

// Warn logs a warn-level message.
func (l *Logger) Warn(format string, args ...interface{}) { l.sug.Warnf(format, args...) }

// Error logs an error-level message.
func (l *Logger) Error(format string, args ...interface{}) { l.sug.Errorf(format, args...) }

// Sync flushes buffered log entries; callers should defer it on
// shutdown.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// Nop returns a Logger that discards everything, for tests that need
// a *Logger but don't care about its output.
func Nop() *Logger {
	zl := zap.NewNop()
	return &Logger{zap: zl, sug: zl.Sugar()}
}

package utils // nolint:revive // utils is an acceptable name for internal utility package

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel is the minimum severity a Logger emits.
type LogLevel int

// Log levels, lowest first.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) zerologLevel() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLogLevel maps debug/info/warn/error (any case) to a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, s)
}

// doneField marks success events so the console writer can render them as DONE.
const doneField = "done"

// Logger is a printf-style facade over zerolog. Console output mimics the
// classic "15:04:05 INFO message" layout; JSON output keeps every field.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger creates a logger writing to w. When pretty is set the output is a
// colored console layout, otherwise one JSON object per line.
func NewLogger(w io.Writer, level LogLevel, pretty bool) *Logger {
	if w == nil {
		w = os.Stderr
	}
	out := w
	if pretty {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
			NoColor:    !IsColorSupported(),
			FormatPrepare: func(evt map[string]any) error {
				if done, ok := evt[doneField].(bool); ok && done {
					evt[zerolog.LevelFieldName] = "success"
				}
				delete(evt, doneField)
				return nil
			},
			FormatLevel: func(i any) string {
				s, _ := i.(string)
				if s == "warning" {
					s = "warn"
				}
				return FormatLogLevel(strings.ToUpper(s))
			},
		}
	}
	zl := zerolog.New(out).Level(level.zerologLevel()).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// NewSilentLogger returns a logger that discards everything.
func NewSilentLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger carrying an extra string field.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...any) {
	l.zl.Debug().Msgf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...any) {
	l.zl.Info().Msgf(format, args...)
}

// Warn logs a warning
func (l *Logger) Warn(format string, args ...any) {
	l.zl.Warn().Msgf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...any) {
	l.zl.Error().Msgf(format, args...)
}

// Success logs a completion message, rendered as DONE on the console.
func (l *Logger) Success(format string, args ...any) {
	l.zl.Info().Bool(doneField, true).Msgf(format, args...)
}

// Elapsed logs an info message with a rounded duration field.
func (l *Logger) Elapsed(d time.Duration, format string, args ...any) {
	l.zl.Info().Str("elapsed", FormatDuration(d)).Msgf(format, args...)
}

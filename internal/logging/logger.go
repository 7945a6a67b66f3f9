package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level represents log levels
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config value such as "debug" or "WARN" onto a Level
func ParseLevel(s string) (Level, error) {
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
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func (l Level) toLogrus() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger provides structured logging
type Logger struct {
	entry  *logrus.Entry
	prefix string
}

// NewLogger creates a new logger instance
func NewLogger(level Level, output io.Writer, prefix string) *Logger {
	base := logrus.New()
	base.SetOutput(output)
	base.SetLevel(level.toLogrus())
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return &Logger{entry: logrus.NewEntry(base), prefix: normalizePrefix(prefix)}
}

// NewDefaultLogger creates a logger sharing the global output and level
func NewDefaultLogger(prefix string) *Logger {
	return &Logger{entry: logrus.NewEntry(root), prefix: normalizePrefix(prefix)}
}

func normalizePrefix(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, ": ") {
		return prefix
	}
	return prefix + ": "
}

func (l *Logger) log(level Level, format string, args ...any) {
	message := l.prefix + fmt.Sprintf(format, args...)
	switch level {
	case LevelDebug:
		l.entry.Debug(message)
	case LevelInfo:
		l.entry.Info(message)
	case LevelWarn:
		l.entry.Warn(message)
	default:
		l.entry.Error(message)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// WithPrefix creates a new logger with an additional prefix
func (l *Logger) WithPrefix(prefix string) *Logger {
	newPrefix := strings.TrimSuffix(l.prefix, ": ")
	if newPrefix != "" {
		newPrefix += " "
	}
	newPrefix += prefix + ": "

	return &Logger{entry: l.entry, prefix: newPrefix}
}

// WithFields attaches structured fields to every line written by the returned logger
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields)), prefix: l.prefix}
}

// Discard returns a logger that drops everything, for tests
func Discard() *Logger {
	return NewLogger(LevelError, io.Discard, "")
}

var root = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}()

// SetLevel sets the global log level
func SetLevel(level Level) {
	root.SetLevel(level.toLogrus())
}

// SetOutput sets the global log output
func SetOutput(output io.Writer) {
	root.SetOutput(output)
}

// SetJSON switches the global output to JSON lines
func SetJSON(enabled bool) {
	if enabled {
		root.SetFormatter(&logrus.JSONFormatter{})
	}
}

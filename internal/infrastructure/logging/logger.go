package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured logger every component receives.
// Fields are alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Config describes how a zerolog-backed logger is built
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string
	Writers    []io.Writer // defaults to stderr
}

// DefaultConfig returns JSON output on stderr at info level
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     "json",
		TimeFormat: time.RFC3339,
	}
}

// ZerologLogger implements Logger on top of zerolog
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewDefaultLogger creates a logger with DefaultConfig
func NewDefaultLogger() Logger {
	return New(DefaultConfig())
}

// New creates a zerolog-backed logger from cfg
func New(cfg Config) *ZerologLogger {
	writers := append([]io.Writer(nil), cfg.Writers...)
	if len(writers) == 0 {
		writers = []io.Writer{os.Stderr}
	}

	if cfg.Format == "console" {
		for i, w := range writers {
			writers[i] = zerolog.ConsoleWriter{Out: w, TimeFormat: cfg.TimeFormat}
		}
	}

	var out io.Writer = writers[0]
	if len(writers) > 1 {
		out = zerolog.MultiLevelWriter(writers...)
	}

	return NewZerologLogger(zerolog.New(out).Level(cfg.Level).With().Timestamp().Logger())
}

// NewZerologLogger wraps an existing zerolog.Logger
func NewZerologLogger(zl zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{zl: zl}
}

// Zerolog exposes the underlying logger
func (l *ZerologLogger) Zerolog() zerolog.Logger {
	return l.zl
}

// GetLevel returns the minimum level that is written
func (l *ZerologLogger) GetLevel() zerolog.Level {
	return l.zl.GetLevel()
}

func (l *ZerologLogger) Debug(msg string, fields ...interface{}) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *ZerologLogger) Info(msg string, fields ...interface{}) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *ZerologLogger) Warn(msg string, fields ...interface{}) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *ZerologLogger) Error(msg string, fields ...interface{}) {
	l.emit(l.zl.Error(), msg, fields)
}

// emit is a no-op when the level is filtered (zerolog returns a nil event)
func (l *ZerologLogger) emit(event *zerolog.Event, msg string, fields []interface{}) {
	if event == nil {
		return
	}
	event.Fields(fieldsToMap(fields)).Msg(msg)
}

// fieldsToMap converts key1, value1, key2, value2, ... into a map.
// Non-string keys and a dangling last value get positional names.
func fieldsToMap(fields []interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(fields)/2+1)

	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			result[fmt.Sprintf("field_%d", i/2)] = fields[i]
			break
		}
		key, ok := fields[i].(string)
		if !ok {
			result[fmt.Sprintf("field_%d", i/2)] = fields[i]
			result[fmt.Sprintf("field_%d_value", i/2)] = fields[i+1]
			continue
		}
		if err, isErr := fields[i+1].(error); isErr && err != nil {
			result[key] = err.Error()
			continue
		}
		result[key] = fields[i+1]
	}

	return result
}

// ParseLevel accepts trace, debug, info, warn, error (case-insensitive).
// Unknown values fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ClassifiedError is satisfied by errors.AppError without importing it
type ClassifiedError interface {
	Error() string
	GetCode() string
	IsRetryable() bool
	GetContext() map[string]string
	GetTimestamp() time.Time
}

// LogError logs err with its classification when available
func LogError(logger Logger, err error, operation string, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	var classified ClassifiedError
	if errors.As(err, &classified) {
		fields := []interface{}{
			"operation", operation,
			"error_code", classified.GetCode(),
			"retryable", classified.IsRetryable(),
			"timestamp", classified.GetTimestamp(),
		}
		for k, v := range classified.GetContext() {
			fields = append(fields, k, v)
		}
		for k, v := range context {
			fields = append(fields, k, v)
		}
		logger.Error(fmt.Sprintf("Operation failed: %s", err.Error()), fields...)
		return
	}

	fields := []interface{}{
		"operation", operation,
		"error_type", fmt.Sprintf("%T", err),
	}
	for k, v := range context {
		fields = append(fields, k, v)
	}
	logger.Error(fmt.Sprintf("Unexpected error: %s", err.Error()), fields...)
}

// LogOperation logs a completed operation and how long it took
func LogOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}
	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Info(fmt.Sprintf("Operation completed: %s", operation), fields...)
}

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}

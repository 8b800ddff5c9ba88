package errors

import (
	"fmt"

	"bilimusic/internal/infrastructure/logging"
)

// LoggerBridge forwards retry lines to a structured logger at warn level
type LoggerBridge struct {
	logger logging.Logger
}

// NewLoggerBridge wraps logger for SetRetryLogger
func NewLoggerBridge(logger logging.Logger) RetryLogger {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &LoggerBridge{logger: logger}
}

func (b *LoggerBridge) Printf(format string, v ...interface{}) {
	b.logger.Warn(fmt.Sprintf(format, v...), "component", "retry")
}

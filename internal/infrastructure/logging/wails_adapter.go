package logging

import (
	"github.com/wailsapp/wails/v2/pkg/logger"
)

var _ logger.Logger = (*WailsLoggerAdapter)(nil)

// WailsLoggerAdapter routes Wails runtime output into a Logger
type WailsLoggerAdapter struct {
	logger Logger
}

// NewWailsLoggerAdapter creates a new Wails logger adapter
func NewWailsLoggerAdapter(l Logger) *WailsLoggerAdapter {
	if l == nil {
		l = NewDefaultLogger()
	}
	return &WailsLoggerAdapter{logger: l}
}

func (w *WailsLoggerAdapter) Print(message string) {
	w.logger.Info(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Trace(message string) {
	w.logger.Debug(message, "source", "wails", "level", "trace")
}

func (w *WailsLoggerAdapter) Debug(message string) {
	w.logger.Debug(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Info(message string) {
	w.logger.Info(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Warning(message string) {
	w.logger.Warn(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Error(message string) {
	w.logger.Error(message, "source", "wails")
}

// Fatal is logged as an error; Wails itself decides whether to exit
func (w *WailsLoggerAdapter) Fatal(message string) {
	w.logger.Error(message, "source", "wails", "level", "fatal")
}

// WailsLogLevel maps a zerolog level name to the Wails log level
func WailsLogLevel(level string) logger.LogLevel {
	switch ParseLevel(level).String() {
	case "trace":
		return logger.TRACE
	case "debug":
		return logger.DEBUG
	case "warn":
		return logger.WARNING
	case "error":
		return logger.ERROR
	default:
		return logger.INFO
	}
}

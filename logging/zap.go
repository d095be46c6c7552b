// Package logging provides [pagesplit.Logger] implementations.
package logging

import (
	"go.uber.org/zap"

	"github.com/baxromumarov/pagesplit"
)

// ZapLogger implements pagesplit.Logger on top of go.uber.org/zap.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// Compile-time assertion that ZapLogger implements Logger.
var _ pagesplit.Logger = (*ZapLogger)(nil)

// NewZap wraps logger. A nil logger yields a no-op zap logger.
//
//	l, _ := zap.NewProduction()
//	s, err := pagesplit.New(weigh, pagesplit.WithLogger(logging.NewZap(l)))
func NewZap(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{sugar: logger.Sugar()}
}

// Debug logs a debug-level message with optional key-value pairs.
func (l *ZapLogger) Debug(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// Info logs an info-level message with optional key-value pairs.
func (l *ZapLogger) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warn logs a warning-level message with optional key-value pairs.
func (l *ZapLogger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Error logs an error-level message with optional key-value pairs.
func (l *ZapLogger) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, keysAndValues...)
}

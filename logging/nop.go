package logging

import "github.com/baxromumarov/pagesplit"

// NopLogger discards all messages.
type NopLogger struct{}

var _ pagesplit.Logger = NopLogger{}

// NewNop returns a logger that discards all messages.
func NewNop() NopLogger {
	return NopLogger{}
}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

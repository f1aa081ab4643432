// Package logger provides the logging interface shared by every stickers
// component, with console, file, fan-out and test backends.
package logger

import (
	"fmt"
	"log"
	"sync"
)

// Logger is the logging surface used across the application.
type Logger interface {
	// Info logs an informational message (e.g., "loaded 12 stickers").
	Info(format string, args ...interface{})

	// Warning logs a recoverable problem (e.g., "sticker 4: content reset").
	Warning(format string, args ...interface{})

	// Error logs a failure (e.g., "persist geometry: database is locked").
	Error(format string, args ...interface{})

	// Close releases resources held by the logger. Safe to call twice.
	Close() error
}

// StandardLogger wraps a stdlib *log.Logger.
type StandardLogger struct {
	logger *log.Logger
}

// NewStandardLogger creates a logger that wraps the given *log.Logger.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.logger.Printf("[INFO] "+format, args...)
}

func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.logger.Printf("[WARNING] "+format, args...)
}

func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}

// Close is a no-op for StandardLogger.
func (s *StandardLogger) Close() error {
	return nil
}

// NopLogger discards all messages.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}
func (n *NopLogger) Close() error                               { return nil }

// Named prefixes every message with "name: " before handing it to l.
// Close is forwarded.
func Named(l Logger, name string) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return &namedLogger{base: l, prefix: name + ": "}
}

type namedLogger struct {
	base   Logger
	prefix string
}

func (n *namedLogger) Info(format string, args ...interface{}) {
	n.base.Info(n.prefix+format, args...)
}

func (n *namedLogger) Warning(format string, args ...interface{}) {
	n.base.Warning(n.prefix+format, args...)
}

func (n *namedLogger) Error(format string, args ...interface{}) {
	n.base.Error(n.prefix+format, args...)
}

func (n *namedLogger) Close() error {
	return n.base.Close()
}

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
	_ Logger = (*namedLogger)(nil)
)

// MockLogger records all log calls for verification in tests.
// It is safe for concurrent use; read the recorded calls through the
// accessor methods once the code under test has settled.
type MockLogger struct {
	mu           sync.Mutex
	infoCalls    []string
	warningCalls []string
	errorCalls   []string
	closeCalled  bool
}

// NewMockLogger creates a new MockLogger for testing.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) Info(format string, args ...interface{}) {
	m.mu.Lock()
	m.infoCalls = append(m.infoCalls, fmt.Sprintf(format, args...))
	m.mu.Unlock()
}

func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.mu.Lock()
	m.warningCalls = append(m.warningCalls, fmt.Sprintf(format, args...))
	m.mu.Unlock()
}

func (m *MockLogger) Error(format string, args ...interface{}) {
	m.mu.Lock()
	m.errorCalls = append(m.errorCalls, fmt.Sprintf(format, args...))
	m.mu.Unlock()
}

func (m *MockLogger) Close() error {
	m.mu.Lock()
	m.closeCalled = true
	m.mu.Unlock()
	return nil
}

// InfoCalls returns a copy of the recorded info messages.
func (m *MockLogger) InfoCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.infoCalls...)
}

// WarningCalls returns a copy of the recorded warning messages.
func (m *MockLogger) WarningCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.warningCalls...)
}

// ErrorCalls returns a copy of the recorded error messages.
func (m *MockLogger) ErrorCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.errorCalls...)
}

// CloseCalled reports whether Close was called.
func (m *MockLogger) CloseCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalled
}

var _ Logger = (*MockLogger)(nil)

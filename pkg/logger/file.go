package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the log file created by NewFileLogger.
const FileName = "stickers.log"

// FileLogger appends to a log file in the application's log directory.
type FileLogger struct {
	*StandardLogger
	mu sync.Mutex
	f  *os.File
}

// NewFileLogger opens (or creates) dir/stickers.log for appending.
func NewFileLogger(dir string) (*FileLogger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &FileLogger{
		StandardLogger: NewStandardLogger(log.New(f, "", log.LstdFlags|log.Lmicroseconds)),
		f:              f,
	}, nil
}

// Close closes the file. Messages logged afterwards are dropped.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

var _ Logger = (*FileLogger)(nil)

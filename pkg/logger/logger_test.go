package logger

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestStandardLogger_Prefixes(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewStandardLogger(log.New(buf, "", 0))

	l.Info("loaded %d stickers", 3)
	l.Warning("sticker %d: %s", 7, "content reset")
	l.Error("persist: %v", "disk full")

	out := buf.String()
	for _, want := range []string{
		"[INFO] loaded 3 stickers",
		"[WARNING] sticker 7: content reset",
		"[ERROR] persist: disk full",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
	if err := l.Close(); err != nil {
		t.Errorf("expected nil error, got: %v", err)
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("test")
	l.Warning("test")
	l.Error("test")
	if err := l.Close(); err != nil {
		t.Errorf("expected nil error, got: %v", err)
	}
}

func TestNamed_PrefixesMessages(t *testing.T) {
	mock := NewMockLogger()
	l := Named(mock, "scheduler")

	l.Info("armed %d", 4)
	l.Error("boom")

	if got := mock.InfoCalls(); len(got) != 1 || got[0] != "scheduler: armed 4" {
		t.Errorf("unexpected info calls: %v", got)
	}
	if got := mock.ErrorCalls(); len(got) != 1 || got[0] != "scheduler: boom" {
		t.Errorf("unexpected error calls: %v", got)
	}
	_ = l.Close()
	if !mock.CloseCalled() {
		t.Error("Close should be forwarded")
	}
}

func TestNamed_NilBase(t *testing.T) {
	l := Named(nil, "x")
	l.Info("does not panic")
}

func TestMockLogger_ConcurrentUse(t *testing.T) {
	mock := NewMockLogger()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mock.Info("msg %d", i)
			mock.Warning("warn %d", i)
		}(i)
	}
	wg.Wait()
	if n := len(mock.InfoCalls()); n != 20 {
		t.Errorf("expected 20 info calls, got %d", n)
	}
	if n := len(mock.WarningCalls()); n != 20 {
		t.Errorf("expected 20 warning calls, got %d", n)
	}
}

func TestMultiLogger_BroadcastsToAll(t *testing.T) {
	mock1 := NewMockLogger()
	mock2 := NewMockLogger()
	multi := NewMultiLogger(mock1, nil, mock2)

	multi.Info("info msg")
	multi.Warning("warn msg")
	multi.Error("error msg")

	for i, m := range []*MockLogger{mock1, mock2} {
		if got := m.InfoCalls(); len(got) != 1 || got[0] != "info msg" {
			t.Errorf("logger %d: info calls %v", i, got)
		}
		if got := m.WarningCalls(); len(got) != 1 || got[0] != "warn msg" {
			t.Errorf("logger %d: warning calls %v", i, got)
		}
		if got := m.ErrorCalls(); len(got) != 1 || got[0] != "error msg" {
			t.Errorf("logger %d: error calls %v", i, got)
		}
	}
}

type failingCloseLogger struct {
	NopLogger
	closeErr error
}

func (f *failingCloseLogger) Close() error { return f.closeErr }

func TestMultiLogger_Close_ReturnsFirstError(t *testing.T) {
	err1 := errors.New("logger1 failed to close")
	err2 := errors.New("logger2 failed to close")
	mock := NewMockLogger()

	multi := NewMultiLogger(&failingCloseLogger{closeErr: err1}, mock, &failingCloseLogger{closeErr: err2})

	if err := multi.Close(); !errors.Is(err, err1) {
		t.Errorf("expected first error %v, got %v", err1, err)
	}
	if !mock.CloseCalled() {
		t.Error("expected mock logger to be closed even after first error")
	}
}

func TestMultiLogger_EmptyLoggers(t *testing.T) {
	multi := NewMultiLogger()
	multi.Info("test")
	if err := multi.Close(); err != nil {
		t.Errorf("expected nil error, got: %v", err)
	}
}

func TestFileLogger_WritesAndCloses(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l, err := NewFileLogger(dir)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	l.Info("hello %s", "file")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "[INFO] hello file") {
		t.Errorf("unexpected log content: %s", data)
	}
}

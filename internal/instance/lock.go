package instance

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// lockFile is an exclusively locked file that records the holder's PID.
type lockFile struct {
	path string
	f    *os.File
}

// tryLock opens path and takes an exclusive, non-blocking lock on it.
// It returns errLocked if another handle holds the lock.
func tryLock(path string) (*lockFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	f, err := openLockFile(path)
	if err != nil {
		return nil, err
	}
	if err := lockExclusive(f); err != nil {
		f.Close()
		return nil, err
	}
	return &lockFile{path: path, f: f}, nil
}

// writePID replaces the file's content with the current PID.
func (l *lockFile) writePID() error {
	if err := l.f.Truncate(0); err != nil {
		return err
	}
	if _, err := l.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := l.f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		return err
	}
	return l.f.Sync()
}

// release unlocks and closes the file. The file itself stays in place.
func (l *lockFile) release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = unlock(l.f)
	err := l.f.Close()
	l.f = nil
	return err
}

// readPID reads and returns the PID from the lock file at path.
func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in lock file: %w", err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid PID: %d", pid)
	}
	return pid, nil
}

// breakLock moves a stale lock file out of the way so a fresh one can be
// created and locked. The old file is removed when possible; on Windows
// it may linger until its holder exits.
func breakLock(path string) error {
	stale := fmt.Sprintf("%s.stale-%d", path, time.Now().UnixNano())
	if err := os.Rename(path, stale); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	_ = os.Remove(stale)
	return nil
}

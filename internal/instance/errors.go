package instance

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by Acquire in a secondary process after the
// primary was asked to show its window.
var ErrAlreadyRunning = errors.New("stickers is already running")

// errLocked reports a lock held by another open handle.
var errLocked = errors.New("lock is held")

// LockError describes a busy instance lock whose holder did not answer.
// Acquire resolves it by breaking the lock; it is returned only when that
// also fails.
type LockError struct {
	Path string
	// PID recorded by the previous holder, 0 if unreadable.
	PID int
	// Alive reports whether a process with PID still exists.
	Alive bool
	Err   error
}

func (e *LockError) Error() string {
	state := "not running"
	if e.Alive {
		state = "not responding"
	}
	if e.PID == 0 {
		return fmt.Sprintf("instance lock %s is held by an unknown process: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("instance lock %s is held by pid %d (%s): %v", e.Path, e.PID, state, e.Err)
}

func (e *LockError) Unwrap() error { return e.Err }

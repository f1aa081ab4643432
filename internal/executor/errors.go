package executor

import (
	"fmt"
	"time"
)

// SpawnError means the command never started: it could not be parsed, the
// program was not found, or the working directory is unusable.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// TimeoutError means the command ran past its timeout and its process tree
// was killed. Partial holds whatever output was captured before the kill.
type TimeoutError struct {
	Command string
	Timeout time.Duration
	Partial *Result
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q timed out after %s", e.Command, e.Timeout)
}

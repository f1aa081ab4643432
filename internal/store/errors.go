package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no sticker row has the requested ID.
var ErrNotFound = errors.New("sticker not found")

// StorageError reports a failed database operation. The wrapped error is
// the driver error.
type StorageError struct {
	Op  string
	ID  int64
	Err error
}

func (e *StorageError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("store: %s sticker %d: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, id int64, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, ID: id, Err: err}
}

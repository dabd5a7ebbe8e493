package report

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage matches every *StorageError through errors.Is.
	ErrStorage = errors.New("storage failure")

	// ErrNotFound is returned when a report does not exist.
	ErrNotFound = errors.New("report not found")
)

// StorageError wraps a failure of the registry, the image store or the
// report repository. Its message may contain driver details and must not be
// shown to clients.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

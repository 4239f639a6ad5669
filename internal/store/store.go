// Package store defines the repository contract shared by the relational
// and flat-file backends, and the error taxonomy they report through.
package store

import (
	"errors"
	"fmt"
)

// Repository is the uniform access path to one record family, whatever the
// backend. Save only ever inserts.
type Repository[T any] interface {
	FindByID(id int64) (T, error)
	FindAll() ([]T, error)
	Save(record T) error
}

var (
	// ErrNotFound means a specific record was required and does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrEmptyResult means a query matched nothing where nothing is a valid
	// business outcome. Callers substitute an empty collection.
	ErrEmptyResult = errors.New("no matching records")

	// ErrDuplicate means a record would break a uniqueness rule of its store.
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidRecord means a record cannot be stored as given.
	ErrInvalidRecord = errors.New("invalid record")
)

// StorageError wraps a relational or file I/O failure that is not explained
// by expected emptiness. It is not retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Wrap returns err as a StorageError for op. Nil stays nil and errors that
// already are storage errors are returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsStorageError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is, or wraps, a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

package store

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("noop", nil))

	err := Wrap("read companies", io.ErrUnexpectedEOF)
	assert.True(t, IsStorageError(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "storage: read companies: unexpected EOF", err.Error())

	// Re-wrapping keeps the innermost operation name.
	again := Wrap("outer", fmt.Errorf("context: %w", err))
	var se *StorageError
	assert.True(t, errors.As(again, &se))
	assert.Equal(t, "read companies", se.Op)
}

func TestIsStorageError_DistinctFromRecoverable(t *testing.T) {
	assert.False(t, IsStorageError(ErrNotFound))
	assert.False(t, IsStorageError(fmt.Errorf("tasks: %w", ErrEmptyResult)))
	assert.False(t, errors.Is(ErrNotFound, ErrEmptyResult))
}

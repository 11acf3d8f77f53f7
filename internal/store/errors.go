package store

import (
	"errors"
	"fmt"
)

// ErrArtifactExists marks an attempted second write to a write-once key.
var ErrArtifactExists = errors.New("artifact already written")

// StorageError indicates the findings store could not persist or load an
// artifact. Storage errors are fatal to the whole run and propagate to the
// caller.
type StorageError struct {
	// Op describes the failed operation.
	Op string
	// Path is the artifact path involved.
	Path string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("findings store: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// asStorageError unwraps err into target, returning true on success.
func asStorageError(err error, target **StorageError) bool {
	return errors.As(err, target)
}

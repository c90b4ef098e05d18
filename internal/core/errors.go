package core

import (
	"errors"
	"fmt"
)

// Recoverable error taxonomy. Nothing in this package or its consumers treats
// an error as process-fatal; every operation reports at its own boundary.
var (
	ErrNotFound            = errors.New("record not found")
	ErrCapacityExceeded    = errors.New("attachment limit reached (max 10 per record)")
	ErrInvalidImportFormat = errors.New("invalid import format")
)

// ValidationError reports a bad field on add or edit. The ledger performs no
// mutation when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// ReadError reports a failed file read during receipt encoding. It is scoped
// to a single file and never aborts the surrounding batch.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// PersistenceSyncError reports a write-through failure after a successful
// in-memory mutation. The mutation is not rolled back; the caller is told
// about the inconsistency window instead.
type PersistenceSyncError struct {
	Op  string
	Err error
}

func (e *PersistenceSyncError) Error() string {
	return fmt.Sprintf("persistence sync after %s: %v", e.Op, e.Err)
}

func (e *PersistenceSyncError) Unwrap() error {
	return e.Err
}

package domain

import (
	"errors"
	"fmt"
)

// Storage errors. Every failure returned by the artifact store wraps
// exactly one of these so callers can branch with errors.Is.
var (
	// ErrInvalidIdentifier indicates a malformed or unsafe record identifier.
	// It is reported before any I/O takes place.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrAlreadyExists indicates a write-once artifact is already present.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound indicates a requested artifact was never written.
	ErrNotFound = errors.New("not found")

	// ErrPreconditionFailed indicates a cross-artifact ordering rule was violated,
	// such as writing an index before its segments.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrIOFailure indicates the storage medium failed (disk, permissions,
	// serialisation).
	ErrIOFailure = errors.New("i/o failure")
)

// ArtifactError describes a failed operation on one artifact of one record.
type ArtifactError struct {
	// Op is the store operation, e.g. "write source".
	Op string

	// Namespace is the record namespace.
	Namespace Namespace

	// ID is the record identifier as supplied by the caller.
	ID string

	// Kind is the artifact kind, empty for whole-record operations.
	Kind ArtifactKind

	// Err is the underlying error. It wraps one of the storage sentinels.
	Err error
}

func (e *ArtifactError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Namespace, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s/%s/%s: %v", e.Op, e.Namespace, e.ID, e.Kind, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// IOError wraps err so that it matches ErrIOFailure while keeping the
// original cause reachable through errors.Is and errors.As.
// A nil err yields nil.
func IOError(step string, err error) error {
	if err == nil {
		return nil
	}
	return &ioError{step: step, err: err}
}

type ioError struct {
	step string
	err  error
}

func (e *ioError) Error() string {
	return fmt.Sprintf("%s: %v", e.step, e.err)
}

func (e *ioError) Unwrap() []error {
	return []error{ErrIOFailure, e.err}
}

// IsStorageError reports whether err carries one of the storage sentinels.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrInvalidIdentifier) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPreconditionFailed) ||
		errors.Is(err, ErrIOFailure)
}

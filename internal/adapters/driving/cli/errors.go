package cli

import (
	"errors"

	"github.com/custodia-labs/policy-store/internal/core/domain"
)

// Process exit codes.
const (
	ExitFailure           = 1
	ExitInvalidIdentifier = 2
	ExitNotFound          = 3
	ExitConflict          = 4
)

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrInvalidIdentifier):
		return ExitInvalidIdentifier
	case errors.Is(err, domain.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrPreconditionFailed):
		return ExitConflict
	default:
		return ExitFailure
	}
}

// Guidance returns a hint for the operator, or "" if there is none.
func Guidance(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		return "records are write-once; re-ingest under a new identifier (policystore policy new-id)"
	case errors.Is(err, domain.ErrPreconditionFailed):
		return "a stored artifact is out of order; write the segments before the index, " +
			"or re-ingest under a new identifier (policystore policy new-id)"
	case errors.Is(err, domain.ErrNotFound):
		return "no such record; check the identifier with 'policystore policy list'"
	case errors.Is(err, domain.ErrInvalidIdentifier):
		return "identifiers use letters, digits, '-', '_' and '.' only"
	default:
		return ""
	}
}

package churn

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	ErrInvalidRange      = errors.New("invalid date range")
	ErrDiffUnavailable   = errors.New("diff unavailable")
	ErrDataIntegrity     = errors.New("data integrity violation")
	ErrRepositoryFailure = errors.New("repository failure")
	ErrNilOpener         = errors.New("nil repository opener")
)

// DiffUnavailableError reports that one commit could not be diffed.
type DiffUnavailableError struct {
	Hash string
	Err  error
}

func (e *DiffUnavailableError) Error() string {
	return fmt.Sprintf("diff unavailable for commit %s: %v", e.Hash, e.Err)
}

func (e *DiffUnavailableError) Unwrap() error { return e.Err }

// Is matches ErrDiffUnavailable.
func (e *DiffUnavailableError) Is(target error) bool { return target == ErrDiffUnavailable }

// DataIntegrityError reports a malformed FileChange.
type DataIntegrityError struct {
	Hash    string
	Path    string
	Added   int
	Removed int
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("negative line counts for %s in commit %s: added=%d removed=%d",
		e.Path, e.Hash, e.Added, e.Removed)
}

// Is matches ErrDataIntegrity.
func (e *DataIntegrityError) Is(target error) bool { return target == ErrDataIntegrity }

// FailureKind distinguishes why a repository failed.
type FailureKind int

// Failure kinds.
const (
	// FailureUnreachable means the repository could not be acquired or opened.
	FailureUnreachable FailureKind = iota + 1
	// FailureTimeout means acquisition or the walk ran past its deadline.
	FailureTimeout
	// FailureWalk means history could not be traversed.
	FailureWalk
)

func (k FailureKind) String() string {
	switch k {
	case FailureUnreachable:
		return "unreachable"
	case FailureTimeout:
		return "timeout"
	case FailureWalk:
		return "walk"
	}

	return "unknown"
}

// RepositoryError marks one repository as failed.
type RepositoryError struct {
	Input string
	Kind  FailureKind
	Err   error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s failed (%s): %v", RedactInput(e.Input), e.Kind, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// Is matches ErrRepositoryFailure.
func (e *RepositoryError) Is(target error) bool { return target == ErrRepositoryFailure }

// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"errors"
	"fmt"
)

// Invocation failure reasons.
const (
	ReasonNoStdin                = "no stdin"
	ReasonRevisionWithStdin      = "revision with stdin"
	ReasonRevisionWithLocal      = "revision with local script"
	ReasonReservedRunName        = "reserved run name"
	ReasonNameAlreadyUsed        = "name already used"
	ReasonInvalidRunName         = "invalid run name"
	ReasonParamsFileMissing      = "params file missing"
	ReasonBadParamsFileExtension = "bad params file extension"
	ReasonUnknownResumeSession   = "unknown resume session"
)

var (
	// ErrInvalidInvocation is the sentinel error wrapped by InvalidInvocationError.
	ErrInvalidInvocation = errors.New("invalid invocation")

	// ErrRepository is the sentinel error wrapped by RepositoryError.
	ErrRepository = errors.New("repository error")

	// ErrParse is the sentinel error wrapped by ParseError.
	ErrParse = errors.New("parse error")
)

type (
	// InvalidInvocationError is returned when the user's inputs contradict each
	// other or refer to something absent.
	InvalidInvocationError struct {
		Reason string
		// Value is the offending input, if any.
		Value string
	}

	// RepositoryError wraps an unexpected failure of the project repository
	// while preparing a remote project.
	RepositoryError struct {
		RepoID string
		Cause  error
	}

	// ParseError is returned when a params file cannot be parsed.
	ParseError struct {
		Path  string
		Cause error
	}
)

// NewInvalidInvocation returns an *InvalidInvocationError.
func NewInvalidInvocation(reason, value string) error {
	return &InvalidInvocationError{Reason: reason, Value: value}
}

func (e *InvalidInvocationError) Error() string {
	if e.Value == "" {
		return "invalid invocation: " + e.Reason
	}
	return fmt.Sprintf("invalid invocation: %s: %q", e.Reason, e.Value)
}

// Unwrap returns ErrInvalidInvocation for errors.Is() compatibility.
func (e *InvalidInvocationError) Unwrap() error { return ErrInvalidInvocation }

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("corrupted project %s: %v", e.RepoID, e.Cause)
}

// Unwrap exposes both ErrRepository and the underlying cause.
func (e *RepositoryError) Unwrap() []error { return []error{ErrRepository, e.Cause} }

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse params file %s: %v", e.Path, e.Cause)
}

// Unwrap exposes both ErrParse and the underlying cause.
func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Cause} }

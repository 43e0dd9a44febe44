// SPDX-License-Identifier: MPL-2.0

package project

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProject is the root of every project domain error. Callers use
	// errors.Is(err, ErrProject) to tell user mistakes apart from
	// repository corruption or I/O failures.
	ErrProject = errors.New("project error")

	// ErrInvalidName is returned for names that are neither owner/repo, a URL,
	// nor a bare repository name.
	ErrInvalidName = fmt.Errorf("%w: invalid project name", ErrProject)

	// ErrUnknownProject is returned when a bare name matches no cached project.
	ErrUnknownProject = fmt.Errorf("%w: unknown project", ErrProject)

	// ErrAmbiguousProject is returned when a bare name matches more than one cached project.
	ErrAmbiguousProject = fmt.Errorf("%w: ambiguous project name", ErrProject)

	// ErrUnknownRevision is returned when a branch, tag or commit does not exist.
	ErrUnknownRevision = fmt.Errorf("%w: unknown revision", ErrProject)

	// ErrMissingMainScript is returned when the checked out project has no main script.
	ErrMissingMainScript = fmt.Errorf("%w: missing main script", ErrProject)

	// ErrNotDownloaded is returned for operations that need a cached clone.
	ErrNotDownloaded = fmt.Errorf("%w: project not downloaded", ErrProject)

	// ErrLocalChanges is returned by Drop when the cached clone has modifications.
	ErrLocalChanges = fmt.Errorf("%w: local changes", ErrProject)
)

type (
	// InvalidNameError reports a malformed project name.
	InvalidNameError struct {
		Name string
	}

	// UnknownProjectError reports a bare name with no cached match.
	UnknownProjectError struct {
		Name        string
		Suggestions []string
	}

	// AmbiguousProjectError reports a bare name with several cached matches.
	AmbiguousProjectError struct {
		Name       string
		Candidates []string
	}

	// UnknownRevisionError reports a revision that does not exist in a project.
	UnknownRevisionError struct {
		Project  string
		Revision string
	}

	// MissingMainScriptError reports a project whose main script is absent.
	MissingMainScriptError struct {
		Project string
		Script  string
	}
)

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid project name %q", e.Name)
}

func (e *InvalidNameError) Unwrap() error { return ErrInvalidName }

func (e *UnknownProjectError) Error() string {
	msg := fmt.Sprintf("unknown project %q", e.Name)
	if len(e.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(e.Suggestions, ", ") + "?)"
	}
	return msg
}

func (e *UnknownProjectError) Unwrap() error { return ErrUnknownProject }

func (e *AmbiguousProjectError) Error() string {
	return fmt.Sprintf("ambiguous project name %q matches: %s", e.Name, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousProjectError) Unwrap() error { return ErrAmbiguousProject }

func (e *UnknownRevisionError) Error() string {
	return fmt.Sprintf("unknown revision %q for project %s", e.Revision, e.Project)
}

func (e *UnknownRevisionError) Unwrap() error { return ErrUnknownRevision }

func (e *MissingMainScriptError) Error() string {
	return fmt.Sprintf("project %s has no main script %q", e.Project, e.Script)
}

func (e *MissingMainScriptError) Unwrap() error { return ErrMissingMainScript }

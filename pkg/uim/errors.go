package uim

import (
	"errors"
	"fmt"
)

// Error kinds returned by the path encoder and the request builders.
// Callers match them with errors.Is; none of them is fatal.
var (
	// ErrInvalidPath reports a malformed or empty path expression, a non-hex
	// element or a zero terminal file id.
	ErrInvalidPath = errors.New("invalid file path")

	// ErrPathTooDeep reports a path with more elements than MaxPathElements.
	ErrPathTooDeep = errors.New("file path too deep")

	// ErrMissingPrecondition reports a dependent request built before its
	// staged value (PIN, new PIN, PUK) was supplied.
	ErrMissingPrecondition = errors.New("missing argument")
)

// PathError records the expression and the reason it was rejected.
type PathError struct {
	Path   string
	Reason string
	Err    error
}

func (e *PathError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%v: '%s'", e.Err, e.Path)
	}
	return fmt.Sprintf("%v: '%s' (%s)", e.Err, e.Path, e.Reason)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func invalidPath(path, reason string) error {
	return &PathError{Path: path, Reason: reason, Err: ErrInvalidPath}
}

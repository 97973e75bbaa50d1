package deb

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes a build failure.
type ErrorKind int

const (
	ErrManifestParse ErrorKind = iota
	ErrMissingField
	ErrInvalidArchitecture
	ErrSourceFileNotFound
	ErrDuplicateDestination
	ErrInvalidDestination
	ErrInvalidContainer
	ErrIO
	ErrInvalidField
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case ErrManifestParse:
		return "ManifestParseError"
	case ErrMissingField:
		return "MissingField"
	case ErrInvalidArchitecture:
		return "InvalidArchitecture"
	case ErrSourceFileNotFound:
		return "SourceFileNotFound"
	case ErrDuplicateDestination:
		return "DuplicateDestination"
	case ErrInvalidDestination:
		return "InvalidDestination"
	case ErrInvalidContainer:
		return "InvalidContainer"
	case ErrIO:
		return "IoError"
	case ErrInvalidField:
		return "InvalidField"
	default:
		return "Unknown"
	}
}

// Error is returned by every operation of this module that fails.
// Path names the manifest field, file or archive member involved, if any.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// newError is a shorthand for building an *Error with a formatted cause.
func newError(kind ErrorKind, path, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Path: path, Err: fmt.Errorf(format, args...)}
}

// NewError creates an *Error of the given kind. It is used by callers outside
// this package (the manifest loader) to report failures with the same kinds.
func NewError(kind ErrorKind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// IsKind reports whether err, or any error it wraps, is an *Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

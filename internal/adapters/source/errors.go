package source

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. A *Error matches exactly one of them via errors.Is.
var (
	ErrNetwork  = errors.New("network error")
	ErrEncoding = errors.New("encoding error")
	ErrParse    = errors.New("parse error")
)

// Kind classifies a load failure.
type Kind string

// Error kinds.
const (
	KindNetwork  Kind = "network"
	KindEncoding Kind = "encoding"
	KindParse    Kind = "parse"
)

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindEncoding:
		return ErrEncoding
	default:
		return ErrParse
	}
}

// Error is a classified load failure.
type Error struct {
	// Op is the failing step: fetch, decode or parse.
	Op string
	// Kind is the error classification.
	Kind Kind
	// StatusCode is the HTTP status (0 if the failure was not an HTTP response).
	StatusCode int
	// Retryable reports whether repeating the attempt may succeed.
	Retryable bool
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("source %s: %s (status %d): %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("source %s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool { return target == e.Kind.sentinel() }

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

func networkError(op string, status int, retryable bool, err error) *Error {
	return &Error{Op: op, Kind: KindNetwork, StatusCode: status, Retryable: retryable, Err: err}
}

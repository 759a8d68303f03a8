package pagination

import (
	"context"
	"errors"
	"fmt"
)

// DefaultServiceMessage is used when the service reports a failure without a message.
const DefaultServiceMessage = "request failed"

// ErrorKind classifies a failed page request.
type ErrorKind string

const (
	// KindNetwork represents transport failures and unparseable non-2xx responses.
	KindNetwork ErrorKind = "network"

	// KindService represents a well-formed response with success=false.
	KindService ErrorKind = "service"

	// KindTimeout represents a request that exceeded its per-request timeout.
	KindTimeout ErrorKind = "timeout"
)

// Error is the typed failure produced for every unsuccessful page request.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ServiceError builds a KindService error carrying the server message.
func ServiceError(statusCode int, message string) *Error {
	if message == "" {
		message = DefaultServiceMessage
	}
	return &Error{
		Kind:       KindService,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NetworkError builds a KindNetwork error wrapping err.
func NetworkError(err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: "network request failed",
		Err:     err,
	}
}

// TimeoutError builds a KindTimeout error wrapping err.
func TimeoutError(err error) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: "request timed out",
		Err:     err,
	}
}

// AsError converts any error to *Error. Errors that already are *Error are
// returned unchanged; deadline errors become timeouts; everything else is
// a network failure.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutError(err)
	}
	return NetworkError(err)
}

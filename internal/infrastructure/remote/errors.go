package remote

import (
	"errors"
	"fmt"
)

// RemoteError is the failure of a backend call. It is deliberately distinct
// from the domain error type: callers branch on it to tell "the rules said
// no" apart from "the network said no".
type RemoteError struct {
	Op         string // logical operation, e.g. "create order"
	StatusCode int    // HTTP status, 0 for transport failures
	Message    string
	Err        error // underlying cause, may be nil
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend: %s failed with HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend: %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsRemoteError reports whether err is (or wraps) a backend call failure
func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

func newTransportError(op string, err error) *RemoteError {
	return &RemoteError{Op: op, Message: err.Error(), Err: err}
}

func newStatusError(op string, statusCode int, message string) *RemoteError {
	if message == "" {
		message = "request rejected"
	}
	return &RemoteError{Op: op, StatusCode: statusCode, Message: message}
}

func newDecodeError(op string, err error) *RemoteError {
	return &RemoteError{Op: op, Message: fmt.Sprintf("malformed response: %v", err), Err: err}
}

package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// CodeInvalidArg indicates a rejected call that left the engine unchanged.
	CodeInvalidArg ErrorCode = "INVALID_ARG"

	// CodeError indicates a transport, credential or state-machine failure.
	CodeError ErrorCode = "ERROR"

	// CodeIndefiniteTime indicates no message has been received yet.
	CodeIndefiniteTime ErrorCode = "INDEFINITE_TIME"
)

var (
	ErrInvalidArg           = errors.New("invalid argument")
	ErrTransport            = errors.New("transport failure")
	ErrWrongCallbackVariant = errors.New("a different callback variant is active")
	ErrNotSubscribed        = errors.New("no callback is registered")
	ErrMethodResponse       = errors.New("method callback returned no payload")
	ErrIndefiniteTime       = errors.New("no message received yet")
	ErrNoInvoker            = errors.New("direct method invoke needs a module identity and a gateway")
	ErrDestroyed            = errors.New("engine destroyed")
)

// Error is returned by every exported Engine operation that fails.
type Error struct {
	Code ErrorCode
	// Op is the operation that failed, e.g. "SendEvent".
	Op  string
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
}

// Unwrap exposes the underlying sentinel or cause.
func (e *Error) Unwrap() error { return e.Err }

// IsInvalidArg reports whether err is an INVALID_ARG engine error.
// Uses errors.As to handle wrapped errors.
func IsInvalidArg(err error) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code == CodeInvalidArg
	}
	return false
}

// IsIndefiniteTime reports whether err is an INDEFINITE_TIME engine error.
func IsIndefiniteTime(err error) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code == CodeIndefiniteTime
	}
	return false
}

func invalidArg(op, format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArg, Op: op, Err: fmt.Errorf("%w: "+format, append([]any{ErrInvalidArg}, args...)...)}
}

func failure(op string, err error) *Error {
	return &Error{Code: CodeError, Op: op, Err: err}
}

func transportFailure(op string, err error) *Error {
	return &Error{Code: CodeError, Op: op, Err: fmt.Errorf("%w: %v", ErrTransport, err)}
}

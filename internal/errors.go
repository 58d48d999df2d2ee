package jsg

import (
	"errors"
	"fmt"
	"strconv"
)

// ExceptionType selects the script-visible error class thrown for an Error.
type ExceptionType int

const (
	ExceptionError ExceptionType = iota
	ExceptionTypeError
	ExceptionRangeError
	ExceptionReferenceError
	ExceptionSyntaxError
	ExceptionOperationError
	ExceptionDataError
	ExceptionDataCloneError
	ExceptionInvalidAccessError
	ExceptionInvalidStateError
	ExceptionNotSupportedError
	ExceptionTimeoutError
	ExceptionAbortError
)

var exceptionNames = [...]string{
	ExceptionError:              "Error",
	ExceptionTypeError:          "TypeError",
	ExceptionRangeError:         "RangeError",
	ExceptionReferenceError:     "ReferenceError",
	ExceptionSyntaxError:        "SyntaxError",
	ExceptionOperationError:     "OperationError",
	ExceptionDataError:          "DataError",
	ExceptionDataCloneError:     "DataCloneError",
	ExceptionInvalidAccessError: "InvalidAccessError",
	ExceptionInvalidStateError:  "InvalidStateError",
	ExceptionNotSupportedError:  "NotSupportedError",
	ExceptionTimeoutError:       "TimeoutError",
	ExceptionAbortError:         "AbortError",
}

func (t ExceptionType) String() string {
	if t < 0 || int(t) >= len(exceptionNames) {
		return fmt.Sprintf("ExceptionType(%d)", int(t))
	}
	return exceptionNames[t]
}

// Error is an error that is thrown into script code as an exception of the
// given type.
type Error struct {
	Name    ExceptionType
	Message string
}

func NewError(name ExceptionType, message string) *Error {
	return &Error{
		Name:    name,
		Message: message,
	}
}

// DefaultError is thrown when a callback fails without saying why.
func DefaultError() *Error {
	return NewError(ExceptionError, "An unknown error occurred")
}

func (e *Error) Error() string {
	return e.Name.String() + ": " + e.Message
}

// AsError converts any error into an Error. Integer parse failures become a
// TypeError, anything else that is not already an Error becomes a plain Error
// carrying err.Error() as message.
func AsError(err error) *Error {
	if err == nil {
		return DefaultError()
	}

	var jsgErr *Error
	if errors.As(err, &jsgErr) {
		return jsgErr
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return NewError(ExceptionTypeError, fmt.Sprintf("Failed to parse integer: %s", numErr.Err))
	}

	return NewError(ExceptionError, err.Error())
}

// InvariantError is the panic payload for broken contracts between this
// package and its collaborators. These are defects, never runtime conditions.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("jsg: invariant violated in %s: %s", e.Op, e.Detail)
}

func invariant(op string, format string, args ...any) {
	panic(&InvariantError{
		Op:     op,
		Detail: fmt.Sprintf(format, args...),
	})
}

package booking

import (
	"errors"
	"fmt"
)

// Stable error codes returned by the booking engine.
const (
	CodeValidation = "validation"
	CodeNotFound   = "not_found"
	CodeForbidden  = "forbidden"
	CodeConflict   = "conflict"
	CodeSlotFull   = "slot_full"
	CodePayment    = "payment"
	CodeInternal   = "internal"
)

// Error is the typed failure returned by booking operations.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func wrapError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the booking error code carried by err, or CodeInternal when
// err is not a booking error.
func CodeOf(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeInternal
}

// MessageOf returns the human-readable message carried by err.
func MessageOf(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Message
	}
	return "unexpected internal error"
}

package reservation

import (
	"fmt"
	"strings"
)

// Code classifies reservation failures for callers: validation and invalid
// state are not retryable, seat conflicts are retryable with a different
// selection, storage errors are retryable as-is.
type Code string

const (
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeSeatsUnavailable Code = "SEATS_UNAVAILABLE"
	CodeInvalidState     Code = "INVALID_STATE_TRANSITION"
	CodeStorage          Code = "STORAGE_ERROR"
	CodeCompensation     Code = "COMPENSATION_FAILURE"
)

// Error is the structured failure a caller receives instead of a Booking.
// ConflictingSeats is populated for CodeSeatsUnavailable so the client can
// retry with a different selection.
type Error struct {
	Code             Code
	Message          string
	ConflictingSeats []string
	cause            error
}

func (e *Error) Error() string {
	if len(e.ConflictingSeats) > 0 {
		return fmt.Sprintf("%s: %s (seats: %s)", e.Code, e.Message, strings.Join(e.ConflictingSeats, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

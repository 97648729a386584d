package ledger

import "errors"

var (
	// ErrValidation marks a malformed or inconsistent booking request; not
	// retryable as submitted.
	ErrValidation = errors.New("ledger: invalid booking request")

	// ErrInvalidTransition marks a state-machine violation; a client
	// sequencing error, never retryable.
	ErrInvalidTransition = errors.New("ledger: invalid booking state transition")

	ErrNotFound = errors.New("ledger: booking not found")
)

package ledger

// Status is the booking lifecycle state. The machine is
// PENDING -> {CONFIRMED, FAILED} and CONFIRMED -> CANCELLED; nothing ever
// moves back to PENDING.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusFailed    Status = "FAILED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusFailed
}

// CanTransitionTo reports whether the state machine permits moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusFailed
	case StatusConfirmed:
		return next == StatusCancelled
	}
	return false
}

// IsActive reports whether the booking currently claims seats.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

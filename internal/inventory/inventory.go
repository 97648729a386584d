package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// State is the lifecycle state of a single seat within one showtime.
type State string

const (
	StateAvailable State = "AVAILABLE"
	StateHeld      State = "HELD"
	StateBooked    State = "BOOKED"
)

var (
	ErrUnknownShowtime = errors.New("inventory: unknown showtime")
	ErrUnknownSeat     = errors.New("inventory: unknown seat")
	ErrSeatNotHeld     = errors.New("inventory: seat is not held")
	ErrHoldMismatch    = errors.New("inventory: seat is held by another request")
	ErrNoSeats         = errors.New("inventory: no seats requested")
)

// ConflictError reports every requested seat that was not Available at the
// time of a hold attempt. The attempt mutates nothing when this is returned.
type ConflictError struct {
	SeatIDs []string
}

func (e *ConflictError) Error() string {
	sorted := make([]string, len(e.SeatIDs))
	copy(sorted, e.SeatIDs)
	sort.Strings(sorted)
	return fmt.Sprintf("inventory: seats unavailable: %s", strings.Join(sorted, ", "))
}

// Inventory is the per-showtime seat state store. All mutation goes through
// these operations; nothing else is permitted to change seat state.
//
// TryHold is all-or-nothing: either every requested seat transitions
// Available -> Held, or none do and a *ConflictError lists the seats that were
// unavailable. On success it returns an opaque token identifying this hold.
// Holds expire after the configured hold TTL unless committed; an expired
// hold's seats can be re-held by another request under a new token.
//
// Commit promotes Held -> Booked. It fails with ErrSeatNotHeld if any seat no
// longer carries a live hold, and with ErrHoldMismatch if a seat's hold
// belongs to a different token. The token check is what stops a request whose
// hold expired from promoting a later request's hold on the same seat.
//
// Release returns seats to Available and is idempotent: releasing an
// Available seat is a no-op. With a non-empty token it only frees holds owned
// by that token, so a compensating release can never strip a seat from
// whoever re-held it. The empty token releases unconditionally, including
// Booked seats; it is reserved for the cancellation path, where the ledger's
// single-shot Confirmed -> Cancelled transition has already fenced out every
// other claimant.
//
// Snapshot is a read-only view for rendering; it may be stale the instant it
// is returned.
type Inventory interface {
	TryHold(ctx context.Context, seatIDs []string) (string, error)
	Commit(ctx context.Context, token string, seatIDs []string) error
	Release(ctx context.Context, token string, seatIDs []string) error
	Snapshot(ctx context.Context) (map[string]State, error)
}

// Provider hands out the Inventory for a showtime. Implemented by Arena for
// the embedded backend and by RedisProvider for the shared one.
type Provider interface {
	Get(showtimeID string) (Inventory, error)
}

package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"cinebook/internal/inventory"
	"cinebook/internal/ledger"
	"cinebook/internal/pricing"
	"cinebook/pkg/logger"
)

// PriceSource resolves a showtime's base ticket price.
type PriceSource interface {
	BasePrice(ctx context.Context, showtimeID string) (float64, error)
}

// EventPublisher receives booking lifecycle events. Publishing is
// best-effort; a broker outage never fails a reservation.
type EventPublisher interface {
	BookingConfirmed(ctx context.Context, booking *ledger.Booking)
	BookingCancelled(ctx context.Context, booking *ledger.Booking)
}

// Coordinator is the single entry point allowed to drive SeatInventory and
// BookingLedger in sequence. It treats hold + booking as one logical
// transaction with explicit compensation: a failed reservation never leaves
// seats held and never leaves a booking pending.
type Coordinator struct {
	inventories inventory.Provider
	ledger      ledger.Service
	engine      *pricing.Engine
	prices      PriceSource
	publisher   EventPublisher
	log         *logger.Logger

	compensationRetries int
	compensationBackoff time.Duration
}

type Option func(*Coordinator)

// WithPublisher attaches a booking event publisher.
func WithPublisher(publisher EventPublisher) Option {
	return func(c *Coordinator) { c.publisher = publisher }
}

// WithCompensationRetries overrides the bounded retry policy for the
// compensating release.
func WithCompensationRetries(retries int, backoff time.Duration) Option {
	return func(c *Coordinator) {
		c.compensationRetries = retries
		c.compensationBackoff = backoff
	}
}

func NewCoordinator(inventories inventory.Provider, ledgerService ledger.Service, engine *pricing.Engine, prices PriceSource, opts ...Option) *Coordinator {
	c := &Coordinator{
		inventories:         inventories,
		ledger:              ledgerService,
		engine:              engine,
		prices:              prices,
		log:                 logger.GetDefault(),
		compensationRetries: 3,
		compensationBackoff: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reserve executes the booking saga: validate, hold, create, price, commit,
// confirm. Whoever completes the hold first wins overlapping seats; the
// loser gets CodeSeatsUnavailable immediately with the conflicting ids and
// no booking record.
func (c *Coordinator) Reserve(ctx context.Context, params ledger.CreateParams) (*ledger.Booking, error) {
	inv, err := c.inventories.Get(params.ShowtimeID)
	if err != nil {
		return nil, newError(CodeValidation, "unknown showtime", err)
	}

	// Structural validation happens before any inventory mutation, so a
	// doomed request never holds seats or leaves a pending row behind.
	if err := c.ledger.Validate(ctx, params); err != nil {
		return nil, classifyLedgerError(err)
	}

	basePrice, err := c.prices.BasePrice(ctx, params.ShowtimeID)
	if err != nil {
		return nil, newError(CodeStorage, "failed to resolve showtime price", err)
	}

	token, err := inv.TryHold(ctx, params.SeatIDs)
	if err != nil {
		var conflict *inventory.ConflictError
		if errors.As(err, &conflict) {
			reservationErr := newError(CodeSeatsUnavailable, "requested seats are unavailable", err)
			reservationErr.ConflictingSeats = conflict.SeatIDs
			return nil, reservationErr
		}
		if errors.Is(err, inventory.ErrUnknownSeat) || errors.Is(err, inventory.ErrNoSeats) {
			return nil, newError(CodeValidation, "invalid seat selection", err)
		}
		return nil, newError(CodeStorage, "failed to hold seats", err)
	}

	// Past this point every failure must compensate the hold. The release is
	// scoped to our token: if the hold expired and another request re-held
	// the seats, compensation must not strip their hold.
	booking, err := c.ledger.Create(ctx, params)
	if err != nil {
		c.compensate(ctx, inv, token, params.SeatIDs, nil, "booking creation failed")
		return nil, classifyLedgerError(err)
	}

	amount, err := c.engine.Price(basePrice, params.TicketCounts)
	if err != nil {
		c.compensate(ctx, inv, token, params.SeatIDs, booking, "pricing failed")
		return nil, newError(CodeValidation, "failed to price tickets", err)
	}

	if err := inv.Commit(ctx, token, params.SeatIDs); err != nil {
		c.compensate(ctx, inv, token, params.SeatIDs, booking, "inventory commit failed")
		return nil, newError(CodeStorage, "failed to commit seats", err)
	}

	confirmed, err := c.ledger.MarkConfirmed(ctx, booking.ID, amount)
	if err != nil {
		// Our commit just booked the seats, so no other request can own
		// them; the unscoped release reverts Booked back to Available.
		c.compensate(ctx, inv, "", params.SeatIDs, booking, "booking confirmation failed")
		return nil, classifyLedgerError(err)
	}

	c.log.LogBookingConfirmed(ctx, confirmed.ID.String(), confirmed.ShowtimeID, confirmed.SeatIDs(), confirmed.TotalAmount)
	if c.publisher != nil {
		c.publisher.BookingConfirmed(ctx, confirmed)
	}
	return confirmed, nil
}

// Cancel moves a confirmed booking to cancelled, then releases its seats, in
// that order: a booking is never observably cancelled while its seats are
// still claimed by it.
func (c *Coordinator) Cancel(ctx context.Context, bookingID uuid.UUID) (*ledger.Booking, error) {
	cancelled, err := c.ledger.Cancel(ctx, bookingID)
	if err != nil {
		return nil, classifyLedgerError(err)
	}

	inv, err := c.inventories.Get(cancelled.ShowtimeID)
	if err != nil {
		c.log.LogCompensationFailure(ctx, cancelled.ID.String(), cancelled.SeatIDs(), err)
		return cancelled, nil
	}
	if err := c.releaseWithRetry(ctx, inv, "", cancelled.SeatIDs()); err != nil {
		// The cancellation itself stands; the stuck seats need an operator.
		c.log.LogCompensationFailure(ctx, cancelled.ID.String(), cancelled.SeatIDs(), err)
		return cancelled, nil
	}

	c.log.LogBookingCancelled(ctx, cancelled.ID.String(), cancelled.ShowtimeID, cancelled.SeatIDs())
	if c.publisher != nil {
		c.publisher.BookingCancelled(ctx, cancelled)
	}
	return cancelled, nil
}

// Get returns a booking by id.
func (c *Coordinator) Get(ctx context.Context, bookingID uuid.UUID) (*ledger.Booking, error) {
	booking, err := c.ledger.Get(ctx, bookingID)
	if err != nil {
		return nil, classifyLedgerError(err)
	}
	return booking, nil
}

// compensate undoes a partially applied reservation: release the seats and,
// when a booking row exists, mark it failed. Release is idempotent, so a
// crash between the two steps cannot double-free anything. A non-empty token
// limits the release to this request's own holds.
func (c *Coordinator) compensate(ctx context.Context, inv inventory.Inventory, token string, seatIDs []string, booking *ledger.Booking, reason string) {
	if err := c.releaseWithRetry(ctx, inv, token, seatIDs); err != nil {
		bookingID := ""
		if booking != nil {
			bookingID = booking.ID.String()
		}
		c.log.LogCompensationFailure(ctx, bookingID, seatIDs, err)
	}

	if booking != nil {
		if _, err := c.ledger.MarkFailed(ctx, booking.ID, reason); err != nil {
			c.log.LogCompensationFailure(ctx, booking.ID.String(), seatIDs, err)
		}
	}
}

// releaseWithRetry retries only the compensating release, never the original
// user-facing operation.
func (c *Coordinator) releaseWithRetry(ctx context.Context, inv inventory.Inventory, token string, seatIDs []string) error {
	var lastErr error
	for attempt := 0; attempt <= c.compensationRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.compensationBackoff * time.Duration(attempt)):
			}
		}
		if lastErr = inv.Release(ctx, token, seatIDs); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func classifyLedgerError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return newError(CodeValidation, "invalid booking request", err)
	case errors.Is(err, ledger.ErrInvalidTransition):
		return newError(CodeInvalidState, "booking is not in a state that allows this operation", err)
	case errors.Is(err, ledger.ErrNotFound):
		return newError(CodeValidation, "booking not found", err)
	default:
		return newError(CodeStorage, "booking storage failure", err)
	}
}

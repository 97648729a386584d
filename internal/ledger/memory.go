package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepository is an in-process Repository. The core is storage-agnostic;
// this backend serves embedded deployments and tests where no Postgres is
// reachable, with the same conditional-update semantics as the gorm one.
type memoryRepository struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*Booking
}

func NewMemoryRepository() Repository {
	return &memoryRepository{bookings: make(map[uuid.UUID]*Booking)}
}

func (r *memoryRepository) Create(_ context.Context, booking *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now
	for i := range booking.Seats {
		booking.Seats[i].BookingID = booking.ID
	}
	for i := range booking.Tickets {
		booking.Tickets[i].BookingID = booking.ID
	}

	if _, exists := r.bookings[booking.ID]; exists {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}
	stored := cloneBooking(booking)
	r.bookings[booking.ID] = &stored
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := cloneBooking(booking)
	return &clone, nil
}

func (r *memoryRepository) GetByShowtimeID(_ context.Context, showtimeID string, statuses ...Status) ([]Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[Status]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}

	var result []Booking
	for _, booking := range r.bookings {
		if booking.ShowtimeID != showtimeID {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[booking.Status]; !ok {
				continue
			}
		}
		result = append(result, cloneBooking(booking))
	}
	return result, nil
}

func (r *memoryRepository) Confirm(_ context.Context, id uuid.UUID, amount float64) error {
	return r.transition(id, StatusPending, func(b *Booking) {
		b.Status = StatusConfirmed
		b.TotalAmount = amount
	})
}

func (r *memoryRepository) Fail(_ context.Context, id uuid.UUID, reason string) error {
	return r.transition(id, StatusPending, func(b *Booking) {
		b.Status = StatusFailed
		b.FailureReason = reason
	})
}

func (r *memoryRepository) Cancel(_ context.Context, id uuid.UUID, cancelledAt time.Time) error {
	return r.transition(id, StatusConfirmed, func(b *Booking) {
		b.Status = StatusCancelled
		b.CancelledAt = &cancelledAt
	})
}

func (r *memoryRepository) transition(id uuid.UUID, from Status, apply func(*Booking)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[id]
	if !ok {
		return ErrNotFound
	}
	if booking.Status != from {
		return ErrInvalidTransition
	}
	apply(booking)
	booking.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneBooking(b *Booking) Booking {
	clone := *b
	clone.Seats = make([]BookingSeat, len(b.Seats))
	copy(clone.Seats, b.Seats)
	clone.Tickets = make([]BookingTicket, len(b.Tickets))
	copy(clone.Tickets, b.Tickets)
	if b.CancelledAt != nil {
		at := *b.CancelledAt
		clone.CancelledAt = &at
	}
	return clone
}

package ledger

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"cinebook/internal/pricing"
)

// ShowtimeDirectory resolves a showtime's seat universe. Defined here so
// the ledger does not depend on the showtimes package.
type ShowtimeDirectory interface {
	SeatSet(ctx context.Context, showtimeID string) (map[string]struct{}, error)
}

// CreateParams is the closed input schema for a new booking.
type CreateParams struct {
	ShowtimeID    string
	SeatIDs       []string
	TicketCounts  map[pricing.TicketType]int
	CustomerName  string
	CustomerEmail string
}

// Service owns Booking records and drives the booking state machine. It
// never touches seat inventory; that sequencing belongs to the reservation
// coordinator.
type Service interface {
	Validate(ctx context.Context, params CreateParams) error
	Create(ctx context.Context, params CreateParams) (*Booking, error)
	MarkConfirmed(ctx context.Context, id uuid.UUID, amount float64) (*Booking, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) (*Booking, error)
	Cancel(ctx context.Context, id uuid.UUID) (*Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*Booking, error)

	// BookedSeatIDs returns every seat claimed by a confirmed booking of the
	// showtime; used to rehydrate inventory on startup.
	BookedSeatIDs(ctx context.Context, showtimeID string) ([]string, error)
}

type service struct {
	repo      Repository
	showtimes ShowtimeDirectory
}

func NewService(repo Repository, showtimes ShowtimeDirectory) Service {
	return &service{repo: repo, showtimes: showtimes}
}

// Validate checks the request structurally without writing anything: seats
// non-empty and unique, every seat part of the showtime, ticket counts
// consistent with the seat count.
func (s *service) Validate(ctx context.Context, params CreateParams) error {
	if len(params.SeatIDs) == 0 {
		return fmt.Errorf("%w: no seats requested", ErrValidation)
	}

	seen := make(map[string]struct{}, len(params.SeatIDs))
	for _, seatID := range params.SeatIDs {
		if _, dup := seen[seatID]; dup {
			return fmt.Errorf("%w: duplicate seat %s", ErrValidation, seatID)
		}
		seen[seatID] = struct{}{}
	}

	seatSet, err := s.showtimes.SeatSet(ctx, params.ShowtimeID)
	if err != nil {
		return fmt.Errorf("failed to resolve showtime seats: %w", err)
	}
	for _, seatID := range params.SeatIDs {
		if _, ok := seatSet[seatID]; !ok {
			return fmt.Errorf("%w: seat %s does not belong to showtime %s", ErrValidation, seatID, params.ShowtimeID)
		}
	}

	total := 0
	for ticketType, count := range params.TicketCounts {
		if !ticketType.IsValid() {
			return fmt.Errorf("%w: unknown ticket type %q", ErrValidation, ticketType)
		}
		if count < 0 {
			return fmt.Errorf("%w: negative count for ticket type %s", ErrValidation, ticketType)
		}
		total += count
	}
	if total != len(params.SeatIDs) {
		return fmt.Errorf("%w: ticket count %d does not match seat count %d", ErrValidation, total, len(params.SeatIDs))
	}

	return nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*Booking, error) {
	if err := s.Validate(ctx, params); err != nil {
		return nil, err
	}

	ref, err := generateBookingRef()
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	booking := &Booking{
		ID:            uuid.New(),
		ShowtimeID:    params.ShowtimeID,
		CustomerName:  params.CustomerName,
		CustomerEmail: params.CustomerEmail,
		Status:        StatusPending,
		BookingRef:    ref,
	}
	for _, seatID := range params.SeatIDs {
		booking.Seats = append(booking.Seats, BookingSeat{
			ID:        uuid.New(),
			BookingID: booking.ID,
			SeatID:    seatID,
		})
	}
	for ticketType, count := range params.TicketCounts {
		if count == 0 {
			continue
		}
		booking.Tickets = append(booking.Tickets, BookingTicket{
			ID:        uuid.New(),
			BookingID: booking.ID,
			Type:      ticketType,
			Quantity:  count,
		})
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *service) MarkConfirmed(ctx context.Context, id uuid.UUID, amount float64) (*Booking, error) {
	if err := s.repo.Confirm(ctx, id, amount); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (*Booking, error) {
	if err := s.repo.Fail(ctx, id, reason); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*Booking, error) {
	if err := s.repo.Cancel(ctx, id, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) BookedSeatIDs(ctx context.Context, showtimeID string) ([]string, error) {
	bookings, err := s.repo.GetByShowtimeID(ctx, showtimeID, StatusConfirmed)
	if err != nil {
		return nil, err
	}

	var seatIDs []string
	for i := range bookings {
		seatIDs = append(seatIDs, bookings[i].SeatIDs()...)
	}
	return seatIDs, nil
}

// generateBookingRef builds a customer-facing reference like
// CIN-20240322-QWXZRT.
func generateBookingRef() (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomPart := make([]byte, 6)
	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}
	return fmt.Sprintf("CIN-%s-%s", time.Now().Format("20060102"), string(randomPart)), nil
}

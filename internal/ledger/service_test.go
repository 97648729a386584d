package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinebook/internal/pricing"
)

type stubDirectory struct {
	seats map[string]map[string]struct{}
}

func (d *stubDirectory) SeatSet(_ context.Context, showtimeID string) (map[string]struct{}, error) {
	return d.seats[showtimeID], nil
}

func newTestService() Service {
	return NewService(NewMemoryRepository(), &stubDirectory{
		seats: map[string]map[string]struct{}{
			"st-1": {"A1": {}, "A2": {}, "B1": {}, "B2": {}},
		},
	})
}

func validParams() CreateParams {
	return CreateParams{
		ShowtimeID:    "st-1",
		SeatIDs:       []string{"A1", "A2"},
		TicketCounts:  map[pricing.TicketType]int{pricing.TicketAdult: 2},
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
	}
}

func TestCreate_Pending(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	booking, err := svc.Create(ctx, validParams())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, booking.Status)
	assert.ElementsMatch(t, []string{"A1", "A2"}, booking.SeatIDs())
	assert.Equal(t, map[pricing.TicketType]int{pricing.TicketAdult: 2}, booking.TicketCounts())
	assert.Regexp(t, `^CIN-\d{8}-[A-Z]{6}$`, booking.BookingRef)

	stored, err := svc.Get(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, stored.ID)
}

func TestValidate_Rejections(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	cases := []struct {
		name   string
		mutate func(*CreateParams)
	}{
		{"empty seats", func(p *CreateParams) { p.SeatIDs = nil }},
		{"duplicate seats", func(p *CreateParams) { p.SeatIDs = []string{"A1", "A1"} }},
		{"foreign seat", func(p *CreateParams) { p.SeatIDs = []string{"A1", "Z9"} }},
		{"count mismatch", func(p *CreateParams) {
			p.TicketCounts = map[pricing.TicketType]int{pricing.TicketAdult: 1}
		}},
		{"unknown ticket type", func(p *CreateParams) {
			p.TicketCounts = map[pricing.TicketType]int{"vip": 2}
		}},
		{"negative count", func(p *CreateParams) {
			p.TicketCounts = map[pricing.TicketType]int{pricing.TicketAdult: 3, pricing.TicketChild: -1}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)
			err := svc.Validate(ctx, params)
			assert.ErrorIs(t, err, ErrValidation)

			// Nothing may be written on a validation failure.
			_, err = svc.Create(ctx, params)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestStateMachine_HappyPath(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	booking, err := svc.Create(ctx, validParams())
	require.NoError(t, err)

	confirmed, err := svc.MarkConfirmed(ctx, booking.ID, 20.00)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.Equal(t, 20.00, confirmed.TotalAmount)

	cancelled, err := svc.Cancel(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
}

func TestStateMachine_IllegalTransitions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	booking, err := svc.Create(ctx, validParams())
	require.NoError(t, err)

	// Pending bookings cannot be cancelled, only confirmed or failed.
	_, err = svc.Cancel(ctx, booking.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.MarkConfirmed(ctx, booking.ID, 20.00)
	require.NoError(t, err)

	// Confirmed is past the pending branch point.
	_, err = svc.MarkConfirmed(ctx, booking.ID, 20.00)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.MarkFailed(ctx, booking.ID, "late failure")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Cancelled is terminal.
	_, err = svc.Cancel(ctx, booking.ID)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, booking.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkFailed(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	booking, err := svc.Create(ctx, validParams())
	require.NoError(t, err)

	failed, err := svc.MarkFailed(ctx, booking.ID, "inventory commit failed")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "inventory commit failed", failed.FailureReason)

	// Failed is terminal.
	_, err = svc.MarkConfirmed(ctx, booking.ID, 20.00)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUnknownBooking(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.MarkConfirmed(ctx, uuid.New(), 1.00)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookedSeatIDs(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	first, err := svc.Create(ctx, validParams())
	require.NoError(t, err)
	_, err = svc.MarkConfirmed(ctx, first.ID, 20.00)
	require.NoError(t, err)

	params := validParams()
	params.SeatIDs = []string{"B1"}
	params.TicketCounts = map[pricing.TicketType]int{pricing.TicketChild: 1}
	second, err := svc.Create(ctx, params)
	require.NoError(t, err)
	// Second stays pending: it must not count as booked.
	_ = second

	seatIDs, err := svc.BookedSeatIDs(ctx, "st-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A1", "A2"}, seatIDs)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusPending.CanTransitionTo(StatusFailed))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCancelled))

	assert.False(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusPending))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusConfirmed))
	assert.False(t, StatusFailed.CanTransitionTo(StatusPending))

	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
}

package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinebook/internal/inventory"
	"cinebook/internal/ledger"
	"cinebook/internal/pricing"
)

type stubDirectory struct {
	seats map[string]map[string]struct{}
}

func (d *stubDirectory) SeatSet(_ context.Context, showtimeID string) (map[string]struct{}, error) {
	return d.seats[showtimeID], nil
}

type stubPrices struct {
	prices map[string]float64
}

func (p *stubPrices) BasePrice(_ context.Context, showtimeID string) (float64, error) {
	price, ok := p.prices[showtimeID]
	if !ok {
		return 0, errors.New("no price for showtime")
	}
	return price, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	confirmed []string
	cancelled []string
}

func (p *recordingPublisher) BookingConfirmed(_ context.Context, booking *ledger.Booking) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = append(p.confirmed, booking.ID.String())
}

func (p *recordingPublisher) BookingCancelled(_ context.Context, booking *ledger.Booking) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, booking.ID.String())
}

type fixture struct {
	coordinator *Coordinator
	arena       *inventory.Arena
	ledger      ledger.Service
	publisher   *recordingPublisher
}

// newFixture wires a coordinator over a 2x2 auditorium (seats A1 A2 B1 B2)
// with a base price of 10.00.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	arena := inventory.NewArena(time.Minute, time.Minute)
	t.Cleanup(arena.Close)
	arena.Register("st-1", []string{"A1", "A2", "B1", "B2"})

	ledgerService := ledger.NewService(ledger.NewMemoryRepository(), &stubDirectory{
		seats: map[string]map[string]struct{}{
			"st-1": {"A1": {}, "A2": {}, "B1": {}, "B2": {}},
		},
	})

	publisher := &recordingPublisher{}
	coordinator := NewCoordinator(
		arena,
		ledgerService,
		pricing.NewEngine(nil),
		&stubPrices{prices: map[string]float64{"st-1": 10.00}},
		WithPublisher(publisher),
		WithCompensationRetries(2, time.Millisecond),
	)

	return &fixture{coordinator: coordinator, arena: arena, ledger: ledgerService, publisher: publisher}
}

func reserveParams(seatIDs []string, counts map[pricing.TicketType]int) ledger.CreateParams {
	return ledger.CreateParams{
		ShowtimeID:    "st-1",
		SeatIDs:       seatIDs,
		TicketCounts:  counts,
		CustomerName:  "Grace Hopper",
		CustomerEmail: "grace@example.com",
	}
}

func seatStates(t *testing.T, f *fixture) map[string]inventory.State {
	t.Helper()
	inv, err := f.arena.Get("st-1")
	require.NoError(t, err)
	snapshot, err := inv.Snapshot(context.Background())
	require.NoError(t, err)
	return snapshot
}

func TestReserve_ConfirmsAndBooksSeats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	booking, err := f.coordinator.Reserve(ctx, reserveParams(
		[]string{"A1", "A2"},
		map[pricing.TicketType]int{pricing.TicketAdult: 2},
	))
	require.NoError(t, err)

	assert.Equal(t, ledger.StatusConfirmed, booking.Status)
	assert.Equal(t, 20.00, booking.TotalAmount)
	assert.ElementsMatch(t, []string{"A1", "A2"}, booking.SeatIDs())

	states := seatStates(t, f)
	assert.Equal(t, inventory.StateBooked, states["A1"])
	assert.Equal(t, inventory.StateBooked, states["A2"])
	assert.Equal(t, inventory.StateAvailable, states["B1"])

	assert.Equal(t, []string{booking.ID.String()}, f.publisher.confirmed)
}

func TestReserve_ConflictThenRetryWithFreeSeats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.coordinator.Reserve(ctx, reserveParams(
		[]string{"A1", "A2"},
		map[pricing.TicketType]int{pricing.TicketAdult: 2},
	))
	require.NoError(t, err)

	// Overlaps on A2: rejected with the exact conflicting seat, B1 untouched.
	_, err = f.coordinator.Reserve(ctx, reserveParams(
		[]string{"A2", "B1"},
		map[pricing.TicketType]int{pricing.TicketAdult: 2},
	))
	var resErr *Error
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, CodeSeatsUnavailable, resErr.Code)
	assert.Equal(t, []string{"A2"}, resErr.ConflictingSeats)
	assert.Equal(t, inventory.StateAvailable, seatStates(t, f)["B1"])

	// Retry with the remaining row: adult 10.00 + child 7.00.
	booking, err := f.coordinator.Reserve(ctx, reserveParams(
		[]string{"B1", "B2"},
		map[pricing.TicketType]int{pricing.TicketAdult: 1, pricing.TicketChild: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, 17.00, booking.TotalAmount)

	for seatID, state := range seatStates(t, f) {
		assert.Equalf(t, inventory.StateBooked, state, "seat %s", seatID)
	}
}

func TestReserve_ValidationFailureTouchesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Ticket count does not match the seat count.
	_, err := f.coordinator.Reserve(ctx, reserveParams(
		[]string{"A1", "A2"},
		map[pricing.TicketType]int{pricing.TicketAdult: 1},
	))
	var resErr *Error
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, CodeValidation, resErr.Code)

	for seatID, state := range seatStates(t, f) {
		assert.Equalf(t, inventory.StateAvailable, state, "seat %s", seatID)
	}
}

func TestReserve_UnknownShowtime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	params := reserveParams([]string{"A1"}, map[pricing.TicketType]int{pricing.TicketAdult: 1})
	params.ShowtimeID = "st-missing"
	_, err := f.coordinator.Reserve(ctx, params)

	var resErr *Error
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, CodeValidation, resErr.Code)
	assert.ErrorIs(t, err, inventory.ErrUnknownShowtime)
}

type failingCreateLedger struct {
	ledger.Service
}

func (f *failingCreateLedger) Create(context.Context, ledger.CreateParams) (*ledger.Booking, error) {
	return nil, errors.New("connection reset")
}

func TestReserve_CreateFailureReleasesHold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.coordinator.ledger = &failingCreateLedger{Service: f.ledger}

	_, err := f.coordinator.Reserve(ctx, reserveParams(
		[]string{"A1", "A2"},
		map[pricing.TicketType]int{pricing.TicketAdult: 2},
	))
	var resErr *Error
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, CodeStorage, resErr.Code)

	// Compensation released the hold: the same seats can be taken again.
	f.coordinator.ledger = f.ledger
	_, err = f.coordinator.Reserve(ctx, reserveParams(
		[]string{"A1", "A2"},
		map[pricing.TicketType]int{pricing.TicketAdult: 2},
	))
	require.NoError(t, err)
}

type failingConfirmLedger struct {
	ledger.Service
}

func (f *failingConfirmLedger) MarkConfirmed(context.Context, uuid.UUID, float64) (*ledger.Booking, error) {
	return nil, errors.New("connection reset")
}

func TestReserve_ConfirmFailureFailsBookingAndFreesSeats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.coordinator.ledger = &failingConfirmLedger{Service: f.ledger}

	_, err := f.coordinator.Reserve(ctx, reserveParams(
		[]string{"A1"},
		map[pricing.TicketType]int{pricing.TicketAdult: 1},
	))
	var resErr *Error
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, CodeStorage, resErr.Code)

	assert.Equal(t, inventory.StateAvailable, seatStates(t, f)["A1"])

	// The pending row must have been compensated to Failed, never left behind.
	bookings, err := f.ledger.BookedSeatIDs(ctx, "st-1")
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestCancel_ReleasesSeatsForRebooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	booking, err := f.coordinator.Reserve(ctx, reserveParams(
		[]string{"A1", "A2"},
		map[pricing.TicketType]int{pricing.TicketSenior: 2},
	))
	require.NoError(t, err)
	assert.Equal(t, 16.00, booking.TotalAmount)

	cancelled, err := f.coordinator.Cancel(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	states := seatStates(t, f)
	assert.Equal(t, inventory.StateAvailable, states["A1"])
	assert.Equal(t, inventory.StateAvailable, states["A2"])

	// The freed seats are immediately bookable by someone else.
	rebooked, err := f.coordinator.Reserve(ctx, reserveParams(
		[]string{"A1", "A2"},
		map[pricing.TicketType]int{pricing.TicketAdult: 2},
	))
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusConfirmed, rebooked.Status)

	assert.Equal(t, []string{booking.ID.String()}, f.publisher.cancelled)
}

func TestCancel_TwiceRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	booking, err := f.coordinator.Reserve(ctx, reserveParams(
		[]string{"B2"},
		map[pricing.TicketType]int{pricing.TicketChild: 1},
	))
	require.NoError(t, err)

	_, err = f.coordinator.Cancel(ctx, booking.ID)
	require.NoError(t, err)

	_, err = f.coordinator.Cancel(ctx, booking.ID)
	var resErr *Error
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, CodeInvalidState, resErr.Code)
}

func TestCancel_UnknownBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.coordinator.Cancel(ctx, uuid.New())
	var resErr *Error
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, CodeValidation, resErr.Code)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestConcurrentReserves_NoSeatDoubleBooked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	requests := [][]string{
		{"A1", "A2"},
		{"A2", "B1"},
		{"B1", "B2"},
		{"B2", "A1"},
	}

	var wg sync.WaitGroup
	results := make([]*ledger.Booking, len(requests))
	failures := make([]error, len(requests))
	for i, seatIDs := range requests {
		wg.Add(1)
		go func(i int, seatIDs []string) {
			defer wg.Done()
			booking, err := f.coordinator.Reserve(ctx, reserveParams(
				seatIDs,
				map[pricing.TicketType]int{pricing.TicketAdult: 2},
			))
			results[i] = booking
			failures[i] = err
		}(i, seatIDs)
	}
	wg.Wait()

	claimed := make(map[string]int)
	confirmed := 0
	for i := range requests {
		if failures[i] != nil {
			var resErr *Error
			require.ErrorAs(t, failures[i], &resErr)
			assert.Equal(t, CodeSeatsUnavailable, resErr.Code)
			assert.NotEmpty(t, resErr.ConflictingSeats)
			continue
		}
		confirmed++
		for _, seatID := range results[i].SeatIDs() {
			claimed[seatID]++
		}
	}

	assert.GreaterOrEqual(t, confirmed, 1)
	for seatID, owners := range claimed {
		assert.Equalf(t, 1, owners, "seat %s double booked", seatID)
	}
}

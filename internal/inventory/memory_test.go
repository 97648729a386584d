package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInventory(t *testing.T, seatIDs []string, ttl time.Duration) *MemoryInventory {
	t.Helper()
	return NewMemoryInventory(seatIDs, ttl)
}

func mustHold(t *testing.T, inv *MemoryInventory, seatIDs []string) string {
	t.Helper()
	token, err := inv.TryHold(context.Background(), seatIDs)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	return token
}

func TestTryHold_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	inv := newTestInventory(t, []string{"A1", "A2", "B1", "B2"}, time.Minute)

	mustHold(t, inv, []string{"A2"})

	// A2 is already held: nothing in the overlapping request may move.
	_, err := inv.TryHold(ctx, []string{"A1", "A2", "B1"})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"A2"}, conflict.SeatIDs)

	snapshot, err := inv.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateAvailable, snapshot["A1"])
	assert.Equal(t, StateHeld, snapshot["A2"])
	assert.Equal(t, StateAvailable, snapshot["B1"])
	assert.Equal(t, StateAvailable, snapshot["B2"])
}

func TestTryHold_ReportsEveryConflict(t *testing.T) {
	ctx := context.Background()
	inv := newTestInventory(t, []string{"A1", "A2", "B1"}, time.Minute)

	token := mustHold(t, inv, []string{"A1", "A2"})
	require.NoError(t, inv.Commit(ctx, token, []string{"A1", "A2"}))

	_, err := inv.TryHold(ctx, []string{"A1", "A2", "B1"})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ElementsMatch(t, []string{"A1", "A2"}, conflict.SeatIDs)
}

func TestTryHold_UnknownSeat(t *testing.T) {
	ctx := context.Background()
	inv := newTestInventory(t, []string{"A1"}, time.Minute)

	_, err := inv.TryHold(ctx, []string{"A1", "Z9"})
	assert.ErrorIs(t, err, ErrUnknownSeat)
	_, err = inv.TryHold(ctx, nil)
	assert.ErrorIs(t, err, ErrNoSeats)

	// The failed attempt must not have held A1.
	snapshot, err := inv.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateAvailable, snapshot["A1"])
}

func TestCommit_RequiresHeld(t *testing.T) {
	ctx := context.Background()
	inv := newTestInventory(t, []string{"A1", "A2"}, time.Minute)

	assert.ErrorIs(t, inv.Commit(ctx, "nope", []string{"A1"}), ErrSeatNotHeld)

	token := mustHold(t, inv, []string{"A1"})
	// One held, one not: commit must reject the whole set.
	assert.ErrorIs(t, inv.Commit(ctx, token, []string{"A1", "A2"}), ErrSeatNotHeld)

	require.NoError(t, inv.Commit(ctx, token, []string{"A1"}))
	snapshot, err := inv.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateBooked, snapshot["A1"])
}

func TestCommit_RejectsForeignHold(t *testing.T) {
	ctx := context.Background()
	inv := newTestInventory(t, []string{"A1", "A2"}, time.Minute)

	// Deterministic clock so the first hold can be expired on demand.
	base := time.Now()
	inv.now = func() time.Time { return base }

	first, err := inv.TryHold(ctx, []string{"A1", "A2"})
	require.NoError(t, err)

	// The hold lapses, a second request grabs the same seats.
	inv.now = func() time.Time { return base.Add(2 * time.Minute) }
	second, err := inv.TryHold(ctx, []string{"A1", "A2"})
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// The slow first request must not be able to promote the second
	// request's hold, and its compensating release must not strip it either.
	assert.ErrorIs(t, inv.Commit(ctx, first, []string{"A1", "A2"}), ErrHoldMismatch)
	require.NoError(t, inv.Release(ctx, first, []string{"A1", "A2"}))

	snapshot, err := inv.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateHeld, snapshot["A1"])
	assert.Equal(t, StateHeld, snapshot["A2"])

	// The rightful owner still commits.
	require.NoError(t, inv.Commit(ctx, second, []string{"A1", "A2"}))

	// And once booked, the stale token keeps having no effect: the seats
	// stay booked and cannot be re-held.
	require.NoError(t, inv.Release(ctx, first, []string{"A1", "A2"}))
	_, err = inv.TryHold(ctx, []string{"A1"})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestRelease_Idempotent(t *testing.T) {
	ctx := context.Background()
	inv := newTestInventory(t, []string{"A1", "A2"}, time.Minute)

	token := mustHold(t, inv, []string{"A1", "A2"})
	require.NoError(t, inv.Release(ctx, token, []string{"A1", "A2"}))

	first, err := inv.Snapshot(ctx)
	require.NoError(t, err)

	// Releasing again is a no-op, not an error.
	require.NoError(t, inv.Release(ctx, token, []string{"A1", "A2"}))
	second, err := inv.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, StateAvailable, second["A1"])
}

func TestRelease_ScopedToOwnHold(t *testing.T) {
	ctx := context.Background()
	inv := newTestInventory(t, []string{"A1", "A2", "B1"}, time.Minute)

	mine := mustHold(t, inv, []string{"A1"})
	theirs := mustHold(t, inv, []string{"A2"})
	booked := mustHold(t, inv, []string{"B1"})
	require.NoError(t, inv.Commit(ctx, booked, []string{"B1"}))

	// A token-scoped release frees only its own holds.
	require.NoError(t, inv.Release(ctx, mine, []string{"A1", "A2", "B1"}))

	snapshot, err := inv.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateAvailable, snapshot["A1"])
	assert.Equal(t, StateHeld, snapshot["A2"])
	assert.Equal(t, StateBooked, snapshot["B1"])

	// The untouched hold still commits.
	require.NoError(t, inv.Commit(ctx, theirs, []string{"A2"}))
}

func TestRelease_UnknownSeatIsNoOp(t *testing.T) {
	ctx := context.Background()
	inv := newTestInventory(t, []string{"A1"}, time.Minute)

	token := mustHold(t, inv, []string{"A1"})

	// Unknown ids anywhere in the set must not abort the release.
	require.NoError(t, inv.Release(ctx, token, []string{"Z9", "A1"}))

	snapshot, err := inv.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateAvailable, snapshot["A1"])
}

func TestRelease_BookedSeat(t *testing.T) {
	ctx := context.Background()
	inv := newTestInventory(t, []string{"A1"}, time.Minute)

	token := mustHold(t, inv, []string{"A1"})
	require.NoError(t, inv.Commit(ctx, token, []string{"A1"}))

	// The cancellation path releases unconditionally and frees the seat for
	// a new hold.
	require.NoError(t, inv.Release(ctx, "", []string{"A1"}))
	mustHold(t, inv, []string{"A1"})
}

func TestHold_ExpiresWithoutExplicitRelease(t *testing.T) {
	ctx := context.Background()
	inv := newTestInventory(t, []string{"A1", "A2"}, 20*time.Millisecond)

	token := mustHold(t, inv, []string{"A1", "A2"})
	time.Sleep(40 * time.Millisecond)

	snapshot, err := inv.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateAvailable, snapshot["A1"])
	assert.Equal(t, StateAvailable, snapshot["A2"])

	// An expired hold cannot be committed...
	assert.ErrorIs(t, inv.Commit(ctx, token, []string{"A1"}), ErrSeatNotHeld)
	// ...but the seats can be held again.
	mustHold(t, inv, []string{"A1", "A2"})
}

func TestSweeper_ReapsExpiredHolds(t *testing.T) {
	arena := NewArena(10*time.Millisecond, 5*time.Millisecond)
	defer arena.Close()

	inv := arena.Register("st-1", []string{"A1"})
	_, err := inv.TryHold(context.Background(), []string{"A1"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		inv.mu.Lock()
		defer inv.mu.Unlock()
		return inv.seats["A1"].state == StateAvailable
	}, time.Second, 5*time.Millisecond)
}

func TestConcurrentHolds_Disjoint(t *testing.T) {
	ctx := context.Background()
	seatIDs := []string{"A1", "A2", "A3", "A4", "B1", "B2", "B3", "B4"}
	inv := newTestInventory(t, seatIDs, time.Minute)

	// Every goroutine fights over an overlapping pair; at most one winner per
	// seat.
	requests := [][]string{
		{"A1", "A2"}, {"A2", "A3"}, {"A3", "A4"}, {"A4", "B1"},
		{"B1", "B2"}, {"B2", "B3"}, {"B3", "B4"}, {"B4", "A1"},
	}

	type win struct {
		token string
		seats []string
	}
	var mu sync.Mutex
	var won []win
	var wg sync.WaitGroup
	for _, req := range requests {
		wg.Add(1)
		go func(seats []string) {
			defer wg.Done()
			if token, err := inv.TryHold(ctx, seats); err == nil {
				mu.Lock()
				won = append(won, win{token: token, seats: seats})
				mu.Unlock()
			}
		}(req)
	}
	wg.Wait()

	claimed := make(map[string]int)
	for _, w := range won {
		require.NoError(t, inv.Commit(ctx, w.token, w.seats))
		for _, id := range w.seats {
			claimed[id]++
		}
	}
	for id, count := range claimed {
		assert.Equal(t, 1, count, "seat %s claimed more than once", id)
	}
	assert.NotEmpty(t, won, "at least one request must win")
}

func TestArena_IndependentShowtimes(t *testing.T) {
	ctx := context.Background()
	arena := NewArena(time.Minute, time.Minute)
	defer arena.Close()

	arena.Register("st-1", []string{"A1"})
	arena.Register("st-2", []string{"A1"})

	first, err := arena.Get("st-1")
	require.NoError(t, err)
	second, err := arena.Get("st-2")
	require.NoError(t, err)

	// Same seat id, different showtimes: no conflict.
	_, err = first.TryHold(ctx, []string{"A1"})
	require.NoError(t, err)
	_, err = second.TryHold(ctx, []string{"A1"})
	require.NoError(t, err)

	_, err = arena.Get("st-3")
	assert.ErrorIs(t, err, ErrUnknownShowtime)
}

func TestArena_RegisterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	arena := NewArena(time.Minute, time.Minute)
	defer arena.Close()

	inv := arena.Register("st-1", []string{"A1"})
	mustHold(t, inv, []string{"A1"})

	// Re-registering must not reset seat state.
	again := arena.Register("st-1", []string{"A1"})
	assert.Same(t, inv, again)

	snapshot, err := again.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateHeld, snapshot["A1"])
}

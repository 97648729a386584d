package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// seatRecord tracks one seat. holdToken and holdExpiry are only meaningful
// while the seat is Held; a Held seat whose deadline has passed counts as
// Available everywhere.
type seatRecord struct {
	state      State
	holdToken  string
	holdExpiry time.Time
}

// MemoryInventory is the embedded Inventory backend: a per-showtime seat map
// guarded by a single mutex. One showtime's request volume does not warrant
// per-seat locking; the mutex is never held across I/O, so overlapping hold
// attempts serialize on pure in-memory work only.
type MemoryInventory struct {
	mu      sync.Mutex
	seats   map[string]*seatRecord
	holdTTL time.Duration
	now     func() time.Time
}

// NewMemoryInventory materializes an inventory with every seat Available.
func NewMemoryInventory(seatIDs []string, holdTTL time.Duration) *MemoryInventory {
	seats := make(map[string]*seatRecord, len(seatIDs))
	for _, id := range seatIDs {
		seats[id] = &seatRecord{state: StateAvailable}
	}
	return &MemoryInventory{
		seats:   seats,
		holdTTL: holdTTL,
		now:     time.Now,
	}
}

// effectiveState folds hold expiry into the stored state.
func (m *MemoryInventory) effectiveState(rec *seatRecord, now time.Time) State {
	if rec.state == StateHeld && now.After(rec.holdExpiry) {
		return StateAvailable
	}
	return rec.state
}

func (m *MemoryInventory) TryHold(_ context.Context, seatIDs []string) (string, error) {
	if len(seatIDs) == 0 {
		return "", ErrNoSeats
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var conflicts []string
	for _, id := range seatIDs {
		rec, ok := m.seats[id]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownSeat, id)
		}
		if m.effectiveState(rec, now) != StateAvailable {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 {
		return "", &ConflictError{SeatIDs: conflicts}
	}

	token := uuid.NewString()
	expiry := now.Add(m.holdTTL)
	for _, id := range seatIDs {
		rec := m.seats[id]
		rec.state = StateHeld
		rec.holdToken = token
		rec.holdExpiry = expiry
	}
	return token, nil
}

func (m *MemoryInventory) Commit(_ context.Context, token string, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return ErrNoSeats
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, id := range seatIDs {
		rec, ok := m.seats[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSeat, id)
		}
		if m.effectiveState(rec, now) != StateHeld {
			return fmt.Errorf("%w: %s", ErrSeatNotHeld, id)
		}
		if rec.holdToken != token {
			return fmt.Errorf("%w: %s", ErrHoldMismatch, id)
		}
	}
	for _, id := range seatIDs {
		rec := m.seats[id]
		rec.state = StateBooked
		rec.holdToken = ""
		rec.holdExpiry = time.Time{}
	}
	return nil
}

func (m *MemoryInventory) Release(_ context.Context, token string, seatIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range seatIDs {
		rec, ok := m.seats[id]
		if !ok {
			// Unknown ids are no-ops so a release can never half-apply.
			continue
		}
		if token != "" && (rec.state != StateHeld || rec.holdToken != token) {
			continue
		}
		rec.state = StateAvailable
		rec.holdToken = ""
		rec.holdExpiry = time.Time{}
	}
	return nil
}

func (m *MemoryInventory) Snapshot(_ context.Context) (map[string]State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	snapshot := make(map[string]State, len(m.seats))
	for id, rec := range m.seats {
		snapshot[id] = m.effectiveState(rec, now)
	}
	return snapshot, nil
}

// sweepExpired reverts expired holds to Available. The effective-state checks
// already ignore expired holds, so this is hygiene that keeps the map honest
// for long-lived showtimes.
func (m *MemoryInventory) sweepExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	swept := 0
	for _, rec := range m.seats {
		if rec.state == StateHeld && now.After(rec.holdExpiry) {
			rec.state = StateAvailable
			rec.holdToken = ""
			rec.holdExpiry = time.Time{}
			swept++
		}
	}
	return swept
}

// Arena owns the per-showtime inventories. Showtimes are independent: each
// carries its own lock, so reservations against different showtimes never
// contend.
type Arena struct {
	mu          sync.RWMutex
	inventories map[string]*MemoryInventory
	holdTTL     time.Duration
	sweepEvery  time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewArena creates an arena and starts its expiry sweeper. Close stops the
// sweeper.
func NewArena(holdTTL, sweepEvery time.Duration) *Arena {
	a := &Arena{
		inventories: make(map[string]*MemoryInventory),
		holdTTL:     holdTTL,
		sweepEvery:  sweepEvery,
		stop:        make(chan struct{}),
	}
	go a.sweepLoop()
	return a
}

// Register materializes the inventory for a showtime. Registering the same
// showtime twice returns the existing inventory untouched, which makes
// startup rehydration restart-safe.
func (a *Arena) Register(showtimeID string, seatIDs []string) *MemoryInventory {
	a.mu.Lock()
	defer a.mu.Unlock()

	if existing, ok := a.inventories[showtimeID]; ok {
		return existing
	}
	inv := NewMemoryInventory(seatIDs, a.holdTTL)
	a.inventories[showtimeID] = inv
	return inv
}

// Get returns the inventory for a showtime.
func (a *Arena) Get(showtimeID string) (Inventory, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	inv, ok := a.inventories[showtimeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShowtime, showtimeID)
	}
	return inv, nil
}

// Close stops the background sweeper.
func (a *Arena) Close() {
	a.stopOnce.Do(func() { close(a.stop) })
}

func (a *Arena) sweepLoop() {
	ticker := time.NewTicker(a.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.mu.RLock()
			inventories := make([]*MemoryInventory, 0, len(a.inventories))
			for _, inv := range a.inventories {
				inventories = append(inventories, inv)
			}
			a.mu.RUnlock()

			for _, inv := range inventories {
				inv.sweepExpired()
			}
		}
	}
}

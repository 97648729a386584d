package showtimes

import (
	"context"

	"cinebook/internal/inventory"
)

// ArenaRegistrar adapts the memory arena to InventoryRegistrar.
type ArenaRegistrar struct {
	Arena *inventory.Arena
}

func (r ArenaRegistrar) Register(_ context.Context, showtimeID string, seatIDs []string) error {
	r.Arena.Register(showtimeID, seatIDs)
	return nil
}

// RedisRegistrar adapts the Redis provider to InventoryRegistrar.
type RedisRegistrar struct {
	Provider *inventory.RedisProvider
}

func (r RedisRegistrar) Register(ctx context.Context, showtimeID string, seatIDs []string) error {
	return r.Provider.Register(ctx, showtimeID, seatIDs)
}

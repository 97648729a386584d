package showtimes

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cinebook/internal/inventory"
	"cinebook/internal/shared/constants"
	"cinebook/pkg/cache"
	"cinebook/pkg/logger"
)

// InventoryRegistrar materializes the seat universe for a new showtime.
// Implemented by adapters over the memory arena and the Redis provider.
type InventoryRegistrar interface {
	Register(ctx context.Context, showtimeID string, seatIDs []string) error
}

// BookedLister reports seats claimed by confirmed bookings; used to
// rehydrate inventory after a restart. Defined here to avoid importing the
// ledger package.
type BookedLister interface {
	BookedSeatIDs(ctx context.Context, showtimeID string) ([]string, error)
}

// Service owns the showtime read model. Creating a showtime is the only
// place seat inventory gets materialized.
type Service interface {
	CreateMovie(ctx context.Context, req CreateMovieRequest) (*Movie, error)
	CreateTheater(ctx context.Context, req CreateTheaterRequest) (*Theater, error)
	CreateShowtime(ctx context.Context, req CreateShowtimeRequest) (*Showtime, error)
	GetShowtime(ctx context.Context, id uuid.UUID) (*Showtime, error)
	ListShowtimes(ctx context.Context, query ShowtimeListQuery) (*PaginatedShowtimes, error)
	SeatMap(ctx context.Context, id uuid.UUID) (*SeatMapResponse, error)

	// SeatSet resolves the showtime's seat universe for booking validation.
	SeatSet(ctx context.Context, showtimeID string) (map[string]struct{}, error)
	// BasePrice resolves the showtime's base ticket price.
	BasePrice(ctx context.Context, showtimeID string) (float64, error)

	// RehydrateInventories re-registers every showtime's inventory and
	// re-marks confirmed seats as booked. Run once at startup.
	RehydrateInventories(ctx context.Context) error

	SetCacheService(cacheService cache.Service)
	SetBookedLister(booked BookedLister)
}

type service struct {
	repo        Repository
	registrar   InventoryRegistrar
	inventories inventory.Provider
	booked      BookedLister
	cache       cache.Service
	log         *logger.Logger
}

func NewService(repo Repository, registrar InventoryRegistrar, inventories inventory.Provider) Service {
	return &service{
		repo:        repo,
		registrar:   registrar,
		inventories: inventories,
		log:         logger.GetDefault(),
	}
}

// SetCacheService injects the cache. Optional; without it seat maps are
// always computed from inventory.
func (s *service) SetCacheService(cacheService cache.Service) {
	s.cache = cacheService
}

// SetBookedLister injects the booked-seat source for rehydration. Setter
// injection keeps the dependency direction one-way.
func (s *service) SetBookedLister(booked BookedLister) {
	s.booked = booked
}

func (s *service) CreateMovie(ctx context.Context, req CreateMovieRequest) (*Movie, error) {
	movie := &Movie{
		ID:              uuid.New(),
		Title:           req.Title,
		DurationMinutes: req.DurationMinutes,
		Description:     req.Description,
	}
	if err := s.repo.CreateMovie(ctx, movie); err != nil {
		return nil, err
	}
	return movie, nil
}

func (s *service) CreateTheater(ctx context.Context, req CreateTheaterRequest) (*Theater, error) {
	theater := &Theater{
		ID:                uuid.New(),
		Name:              req.Name,
		Location:          req.Location,
		LayoutRows:        req.Rows,
		LayoutSeatsPerRow: req.SeatsPerRow,
	}
	// Reject impossible layouts at creation, not at first booking.
	if _, err := theater.Layout(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.repo.CreateTheater(ctx, theater); err != nil {
		return nil, err
	}
	return theater, nil
}

func (s *service) CreateShowtime(ctx context.Context, req CreateShowtimeRequest) (*Showtime, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidSchedule
	}

	movieID, err := uuid.Parse(req.MovieID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid movie id", ErrValidation)
	}
	theaterID, err := uuid.Parse(req.TheaterID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid theater id", ErrValidation)
	}

	movie, err := s.repo.GetMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}
	theater, err := s.repo.GetTheater(ctx, theaterID)
	if err != nil {
		return nil, err
	}
	seatLayout, err := theater.Layout()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	showtime := &Showtime{
		ID:        uuid.New(),
		MovieID:   movieID,
		TheaterID: theaterID,
		Movie:     *movie,
		Theater:   *theater,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		BasePrice: req.BasePrice,
	}
	if err := s.repo.CreateShowtime(ctx, showtime); err != nil {
		return nil, err
	}

	seatIDs := seatLayout.Materialize()
	if err := s.registrar.Register(ctx, showtime.ID.String(), seatIDs); err != nil {
		return nil, fmt.Errorf("failed to materialize inventory for showtime %s: %w", showtime.ID, err)
	}

	s.log.LogShowtimeCreated(ctx, showtime.ID.String(), movie.Title, len(seatIDs))
	return showtime, nil
}

func (s *service) GetShowtime(ctx context.Context, id uuid.UUID) (*Showtime, error) {
	return s.repo.GetShowtime(ctx, id)
}

func (s *service) ListShowtimes(ctx context.Context, query ShowtimeListQuery) (*PaginatedShowtimes, error) {
	showtimes, totalCount, err := s.repo.ListShowtimes(ctx, query)
	if err != nil {
		return nil, err
	}

	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}

	responses := make([]ShowtimeResponse, len(showtimes))
	for i := range showtimes {
		responses[i] = showtimes[i].ToResponse()
	}
	return &PaginatedShowtimes{
		Showtimes:  responses,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
	}, nil
}

// SeatMap renders the showtime's seat availability in layout order. Results
// ride a short-TTL cache; staleness is bounded and harmless because the
// reservation path never reads it.
func (s *service) SeatMap(ctx context.Context, id uuid.UUID) (*SeatMapResponse, error) {
	if s.cache != nil {
		var cached SeatMapResponse
		cacheKey := constants.BuildSeatMapKey(id.String())
		err := s.cache.GetOrSet(ctx, cacheKey, constants.TTL_SEATMAP, func() (interface{}, error) {
			return s.buildSeatMap(ctx, id)
		}, &cached)
		if err == nil {
			return &cached, nil
		}
		// Fall through on cache trouble; inventory is the source of truth.
	}
	return s.buildSeatMap(ctx, id)
}

func (s *service) buildSeatMap(ctx context.Context, id uuid.UUID) (*SeatMapResponse, error) {
	showtime, err := s.repo.GetShowtime(ctx, id)
	if err != nil {
		return nil, err
	}
	seatLayout, err := showtime.Theater.Layout()
	if err != nil {
		return nil, err
	}

	inv, err := s.inventories.Get(id.String())
	if err != nil {
		return nil, err
	}
	snapshot, err := inv.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	resp := newSeatMapResponse(id.String(), seatLayout.Materialize(), snapshot)
	return &resp, nil
}

func (s *service) SeatSet(ctx context.Context, showtimeID string) (map[string]struct{}, error) {
	id, err := uuid.Parse(showtimeID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid showtime id", ErrValidation)
	}
	showtime, err := s.repo.GetShowtime(ctx, id)
	if err != nil {
		return nil, err
	}
	seatLayout, err := showtime.Theater.Layout()
	if err != nil {
		return nil, err
	}

	seatIDs := seatLayout.Materialize()
	seatSet := make(map[string]struct{}, len(seatIDs))
	for _, seatID := range seatIDs {
		seatSet[seatID] = struct{}{}
	}
	return seatSet, nil
}

func (s *service) BasePrice(ctx context.Context, showtimeID string) (float64, error) {
	id, err := uuid.Parse(showtimeID)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid showtime id", ErrValidation)
	}
	showtime, err := s.repo.GetShowtime(ctx, id)
	if err != nil {
		return 0, err
	}
	return showtime.BasePrice, nil
}

// RehydrateInventories rebuilds seat state from the ledger: every showtime's
// universe is re-registered and seats with a confirmed booking go back to
// Booked via a hold-then-commit pair.
func (s *service) RehydrateInventories(ctx context.Context) error {
	showtimes, _, err := s.repo.ListShowtimes(ctx, ShowtimeListQuery{Page: 1, Limit: 10000})
	if err != nil {
		return fmt.Errorf("failed to list showtimes for rehydration: %w", err)
	}

	for i := range showtimes {
		showtime := &showtimes[i]
		seatLayout, err := showtime.Theater.Layout()
		if err != nil {
			return fmt.Errorf("showtime %s has an invalid layout: %w", showtime.ID, err)
		}
		showtimeID := showtime.ID.String()
		if err := s.registrar.Register(ctx, showtimeID, seatLayout.Materialize()); err != nil {
			return err
		}

		if s.booked == nil {
			continue
		}
		bookedSeats, err := s.booked.BookedSeatIDs(ctx, showtimeID)
		if err != nil {
			return fmt.Errorf("failed to load booked seats for showtime %s: %w", showtimeID, err)
		}
		if len(bookedSeats) == 0 {
			continue
		}

		inv, err := s.inventories.Get(showtimeID)
		if err != nil {
			return err
		}

		// Backends with durable state (Redis) already report these seats as
		// Booked across a restart; re-holding them would read as conflicts.
		snapshot, err := inv.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("failed to read inventory for showtime %s: %w", showtimeID, err)
		}
		toRestore := make([]string, 0, len(bookedSeats))
		for _, seatID := range bookedSeats {
			if snapshot[seatID] != inventory.StateBooked {
				toRestore = append(toRestore, seatID)
			}
		}
		if len(toRestore) > 0 {
			token, err := inv.TryHold(ctx, toRestore)
			if err != nil {
				return fmt.Errorf("failed to rehydrate booked seats for showtime %s: %w", showtimeID, err)
			}
			if err := inv.Commit(ctx, token, toRestore); err != nil {
				return fmt.Errorf("failed to rehydrate booked seats for showtime %s: %w", showtimeID, err)
			}
		}
		s.log.InfoWithContext(ctx, "Inventory Rehydrated", map[string]interface{}{
			"showtime_id":  showtimeID,
			"booked_seats": len(bookedSeats),
			"restored":     len(toRestore),
		})
	}
	return nil
}

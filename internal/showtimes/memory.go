package showtimes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepository backs the service in embedded deployments and tests.
type memoryRepository struct {
	mu        sync.RWMutex
	movies    map[uuid.UUID]Movie
	theaters  map[uuid.UUID]Theater
	showtimes map[uuid.UUID]Showtime
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		movies:    make(map[uuid.UUID]Movie),
		theaters:  make(map[uuid.UUID]Theater),
		showtimes: make(map[uuid.UUID]Showtime),
	}
}

func (r *memoryRepository) CreateMovie(_ context.Context, movie *Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if movie.ID == uuid.Nil {
		movie.ID = uuid.New()
	}
	stampTimes(&movie.CreatedAt, &movie.UpdatedAt)
	r.movies[movie.ID] = *movie
	return nil
}

func (r *memoryRepository) GetMovie(_ context.Context, id uuid.UUID) (*Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	movie, ok := r.movies[id]
	if !ok {
		return nil, fmt.Errorf("%w: movie %s", ErrNotFound, id)
	}
	return &movie, nil
}

func (r *memoryRepository) CreateTheater(_ context.Context, theater *Theater) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if theater.ID == uuid.Nil {
		theater.ID = uuid.New()
	}
	stampTimes(&theater.CreatedAt, &theater.UpdatedAt)
	r.theaters[theater.ID] = *theater
	return nil
}

func (r *memoryRepository) GetTheater(_ context.Context, id uuid.UUID) (*Theater, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	theater, ok := r.theaters[id]
	if !ok {
		return nil, fmt.Errorf("%w: theater %s", ErrNotFound, id)
	}
	return &theater, nil
}

func (r *memoryRepository) CreateShowtime(_ context.Context, showtime *Showtime) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if showtime.ID == uuid.Nil {
		showtime.ID = uuid.New()
	}
	stampTimes(&showtime.CreatedAt, &showtime.UpdatedAt)
	showtime.Movie = r.movies[showtime.MovieID]
	showtime.Theater = r.theaters[showtime.TheaterID]
	r.showtimes[showtime.ID] = *showtime
	return nil
}

func (r *memoryRepository) GetShowtime(_ context.Context, id uuid.UUID) (*Showtime, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	showtime, ok := r.showtimes[id]
	if !ok {
		return nil, fmt.Errorf("%w: showtime %s", ErrNotFound, id)
	}
	showtime.Movie = r.movies[showtime.MovieID]
	showtime.Theater = r.theaters[showtime.TheaterID]
	return &showtime, nil
}

func (r *memoryRepository) ListShowtimes(_ context.Context, query ShowtimeListQuery) ([]Showtime, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Showtime, 0, len(r.showtimes))
	for _, showtime := range r.showtimes {
		showtime.Movie = r.movies[showtime.MovieID]
		showtime.Theater = r.theaters[showtime.TheaterID]
		all = append(all, showtime)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.Before(all[j].StartTime) })

	totalCount := int64(len(all))
	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}
	offset := (query.Page - 1) * query.Limit
	if offset >= len(all) {
		return nil, totalCount, nil
	}
	end := offset + query.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], totalCount, nil
}

func stampTimes(createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

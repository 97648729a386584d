package showtimes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateMovie(ctx context.Context, movie *Movie) error
	GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error)
	CreateTheater(ctx context.Context, theater *Theater) error
	GetTheater(ctx context.Context, id uuid.UUID) (*Theater, error)
	CreateShowtime(ctx context.Context, showtime *Showtime) error
	GetShowtime(ctx context.Context, id uuid.UUID) (*Showtime, error)
	ListShowtimes(ctx context.Context, query ShowtimeListQuery) ([]Showtime, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateMovie(ctx context.Context, movie *Movie) error {
	if err := r.db.WithContext(ctx).Create(movie).Error; err != nil {
		return fmt.Errorf("failed to create movie: %w", err)
	}
	return nil
}

func (r *repository) GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error) {
	var movie Movie
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&movie).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: movie %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &movie, nil
}

func (r *repository) CreateTheater(ctx context.Context, theater *Theater) error {
	if err := r.db.WithContext(ctx).Create(theater).Error; err != nil {
		return fmt.Errorf("failed to create theater: %w", err)
	}
	return nil
}

func (r *repository) GetTheater(ctx context.Context, id uuid.UUID) (*Theater, error) {
	var theater Theater
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&theater).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: theater %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &theater, nil
}

func (r *repository) CreateShowtime(ctx context.Context, showtime *Showtime) error {
	if err := r.db.WithContext(ctx).Create(showtime).Error; err != nil {
		return fmt.Errorf("failed to create showtime: %w", err)
	}
	return nil
}

func (r *repository) GetShowtime(ctx context.Context, id uuid.UUID) (*Showtime, error) {
	var showtime Showtime
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Preload("Theater").
		Where("id = ?", id).
		First(&showtime).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: showtime %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &showtime, nil
}

func (r *repository) ListShowtimes(ctx context.Context, query ShowtimeListQuery) ([]Showtime, int64, error) {
	var showtimes []Showtime
	var totalCount int64

	db := r.db.WithContext(ctx).Model(&Showtime{})
	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}
	offset := (query.Page - 1) * query.Limit

	err := db.Preload("Movie").
		Preload("Theater").
		Order("start_time ASC").
		Offset(offset).
		Limit(query.Limit).
		Find(&showtimes).Error

	return showtimes, totalCount, err
}

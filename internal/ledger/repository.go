package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists bookings. Every status-changing method is an atomic
// conditional update: the row moves only if it is still in the expected
// source state, otherwise ErrInvalidTransition comes back. That keeps the
// state machine honest even with concurrent writers.
type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByShowtimeID(ctx context.Context, showtimeID string, statuses ...Status) ([]Booking, error)

	Confirm(ctx context.Context, id uuid.UUID, amount float64) error
	Fail(ctx context.Context, id uuid.UUID, reason string) error
	Cancel(ctx context.Context, id uuid.UUID, cancelledAt time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Seats").
		Preload("Tickets").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *repository) GetByShowtimeID(ctx context.Context, showtimeID string, statuses ...Status) ([]Booking, error) {
	query := r.db.WithContext(ctx).
		Preload("Seats").
		Preload("Tickets").
		Where("showtime_id = ?", showtimeID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var bookings []Booking
	if err := query.Order("created_at ASC").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (r *repository) Confirm(ctx context.Context, id uuid.UUID, amount float64) error {
	return r.transition(ctx, id, StatusPending, map[string]interface{}{
		"status":       StatusConfirmed,
		"total_amount": amount,
		"updated_at":   time.Now().UTC(),
	})
}

func (r *repository) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	return r.transition(ctx, id, StatusPending, map[string]interface{}{
		"status":         StatusFailed,
		"failure_reason": reason,
		"updated_at":     time.Now().UTC(),
	})
}

func (r *repository) Cancel(ctx context.Context, id uuid.UUID, cancelledAt time.Time) error {
	return r.transition(ctx, id, StatusConfirmed, map[string]interface{}{
		"status":       StatusCancelled,
		"cancelled_at": cancelledAt,
		"updated_at":   cancelledAt,
	})
}

// transition applies updates only while the row is still in the expected
// state. Zero rows affected means either a missing booking or a lost race;
// we reread to tell the two apart.
func (r *repository) transition(ctx context.Context, id uuid.UUID, from Status, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update booking status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&Booking{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check booking existence: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrInvalidTransition
	}
	return nil
}

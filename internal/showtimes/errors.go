package showtimes

import "errors"

var (
	ErrNotFound        = errors.New("showtimes: not found")
	ErrInvalidSchedule = errors.New("showtimes: end time must be after start time")
	ErrValidation      = errors.New("showtimes: invalid input")
)

package showtimes

import "time"

type CreateMovieRequest struct {
	Title           string `json:"title" binding:"required,min=1,max=255"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=600"`
	Description     string `json:"description" binding:"max=2000"`
}

type CreateTheaterRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Location    string `json:"location" binding:"max=500"`
	Rows        int    `json:"rows" binding:"required,min=1,max=100"`
	SeatsPerRow int    `json:"seats_per_row" binding:"required,min=1,max=100"`
}

type CreateShowtimeRequest struct {
	MovieID   string    `json:"movie_id" binding:"required,uuid"`
	TheaterID string    `json:"theater_id" binding:"required,uuid"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	BasePrice float64   `json:"base_price" binding:"required,min=0"`
}

type ShowtimeListQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

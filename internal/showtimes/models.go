package showtimes

import (
	"time"

	"github.com/google/uuid"

	"cinebook/internal/layout"
)

type Movie struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title           string    `json:"title" gorm:"not null;size:255"`
	DurationMinutes int       `json:"duration_minutes" gorm:"not null;check:duration_minutes > 0"`
	Description     string    `json:"description" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type Theater struct {
	ID                uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name              string    `json:"name" gorm:"not null;size:255"`
	Location          string    `json:"location" gorm:"size:500"`
	LayoutRows        int       `json:"layout_rows" gorm:"not null;check:layout_rows > 0"`
	LayoutSeatsPerRow int       `json:"layout_seats_per_row" gorm:"not null;check:layout_seats_per_row > 0"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Layout returns the theater's seat layout.
func (t *Theater) Layout() (layout.Layout, error) {
	return layout.New(t.LayoutRows, t.LayoutSeatsPerRow)
}

type Showtime struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	MovieID   uuid.UUID `json:"movie_id" gorm:"type:uuid;not null;index"`
	TheaterID uuid.UUID `json:"theater_id" gorm:"type:uuid;not null;index"`
	Movie     Movie     `json:"-" gorm:"foreignKey:MovieID"`
	Theater   Theater   `json:"-" gorm:"foreignKey:TheaterID"`
	StartTime time.Time `json:"start_time" gorm:"not null;index"`
	EndTime   time.Time `json:"end_time" gorm:"not null"`
	BasePrice float64   `json:"base_price" gorm:"not null;check:base_price >= 0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Movie) TableName() string {
	return "movies"
}

func (Theater) TableName() string {
	return "theaters"
}

func (Showtime) TableName() string {
	return "showtimes"
}

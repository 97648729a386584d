package database

import (
	"cinebook/internal/ledger"
	"cinebook/internal/showtimes"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&showtimes.Movie{},
		&showtimes.Theater{},
		&showtimes.Showtime{},
		&ledger.Booking{},
		&ledger.BookingSeat{},
		&ledger.BookingTicket{},
	)
}

package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds indexes the reservation flow leans on. Seat
// exclusivity is enforced by the inventory, not here: the ledger keeps
// history, so the same seat may legitimately appear across failed, cancelled
// and rebooked bookings.
func MigrateConstraints(db *gorm.DB) error {
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_showtime_status
		ON bookings (showtime_id, status);
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_booking_seats_seat_id
		ON booking_seats (seat_id);
	`).Error
	if err != nil {
		return err
	}

	return nil
}

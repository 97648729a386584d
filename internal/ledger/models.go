package ledger

import (
	"time"

	"github.com/google/uuid"

	"cinebook/internal/pricing"
)

// Booking is the ledger's record of one reservation attempt against a
// showtime. Seat membership and ticket counts live in child rows so each
// seat and ticket line can be queried on its own.
type Booking struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ShowtimeID    string    `gorm:"type:uuid;index;not null" json:"showtime_id"`
	CustomerName  string    `gorm:"not null" json:"customer_name"`
	CustomerEmail string    `gorm:"not null" json:"customer_email"`
	TotalAmount   float64   `gorm:"not null" json:"total_amount"`
	Status        Status    `gorm:"type:varchar(20);check:status IN ('PENDING', 'CONFIRMED', 'CANCELLED', 'FAILED');default:'PENDING'" json:"status"`
	FailureReason string    `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`
	BookingRef    string    `gorm:"unique;not null" json:"booking_ref"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	Seats   []BookingSeat   `json:"seats,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
	Tickets []BookingTicket `json:"tickets,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

// BookingSeat binds one seat identifier to a booking.
type BookingSeat struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	SeatID    string    `gorm:"not null;index" json:"seat_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BookingTicket records how many tickets of one type the booking carries.
type BookingTicket struct {
	ID        uuid.UUID          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID uuid.UUID          `gorm:"type:uuid;index;not null" json:"booking_id"`
	Type      pricing.TicketType `gorm:"type:varchar(20);not null" json:"type"`
	Quantity  int                `gorm:"not null" json:"quantity"`
	CreatedAt time.Time          `json:"created_at"`
}

func (Booking) TableName() string       { return "bookings" }
func (BookingSeat) TableName() string   { return "booking_seats" }
func (BookingTicket) TableName() string { return "booking_tickets" }

// SeatIDs flattens the child rows into the seat identifier set.
func (b *Booking) SeatIDs() []string {
	ids := make([]string, 0, len(b.Seats))
	for _, seat := range b.Seats {
		ids = append(ids, seat.SeatID)
	}
	return ids
}

// TicketCounts flattens the child rows into a per-type count map.
func (b *Booking) TicketCounts() map[pricing.TicketType]int {
	counts := make(map[pricing.TicketType]int, len(b.Tickets))
	for _, ticket := range b.Tickets {
		counts[ticket.Type] += ticket.Quantity
	}
	return counts
}

func (b *Booking) IsPending() bool   { return b.Status == StatusPending }
func (b *Booking) IsConfirmed() bool { return b.Status == StatusConfirmed }
func (b *Booking) IsCancelled() bool { return b.Status == StatusCancelled }

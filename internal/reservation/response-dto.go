package reservation

import (
	"time"

	"cinebook/internal/ledger"
)

// ReservationResponse is the wire shape of a booking.
type ReservationResponse struct {
	ID            string         `json:"id"`
	BookingRef    string         `json:"booking_ref"`
	ShowtimeID    string         `json:"showtime_id"`
	SeatIDs       []string       `json:"seat_ids"`
	Tickets       map[string]int `json:"tickets"`
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email"`
	TotalAmount   float64        `json:"total_amount"`
	Status        string         `json:"status"`
	FailureReason string         `json:"failure_reason,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	CancelledAt   *time.Time     `json:"cancelled_at,omitempty"`
}

func toReservationResponse(booking *ledger.Booking) ReservationResponse {
	tickets := make(map[string]int, len(booking.Tickets))
	for _, ticket := range booking.Tickets {
		tickets[string(ticket.Type)] = ticket.Quantity
	}
	return ReservationResponse{
		ID:            booking.ID.String(),
		BookingRef:    booking.BookingRef,
		ShowtimeID:    booking.ShowtimeID,
		SeatIDs:       booking.SeatIDs(),
		Tickets:       tickets,
		CustomerName:  booking.CustomerName,
		CustomerEmail: booking.CustomerEmail,
		TotalAmount:   booking.TotalAmount,
		Status:        booking.Status.String(),
		FailureReason: booking.FailureReason,
		CreatedAt:     booking.CreatedAt,
		CancelledAt:   booking.CancelledAt,
	}
}

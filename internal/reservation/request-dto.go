package reservation

import (
	"cinebook/internal/ledger"
	"cinebook/internal/pricing"
)

// CreateReservationRequest is the payload for POST /api/v1/reservations.
type CreateReservationRequest struct {
	ShowtimeID    string         `json:"showtime_id" validate:"required,uuid"`
	SeatIDs       []string       `json:"seat_ids" validate:"required,min=1,dive,required"`
	Tickets       map[string]int `json:"tickets" validate:"required,dive,keys,oneof=adult child senior,endkeys,gte=1"`
	CustomerName  string         `json:"customer_name" validate:"required,min=1,max=255"`
	CustomerEmail string         `json:"customer_email" validate:"required,email"`
}

func (r *CreateReservationRequest) toParams() ledger.CreateParams {
	counts := make(map[pricing.TicketType]int, len(r.Tickets))
	for ticketType, count := range r.Tickets {
		counts[pricing.TicketType(ticketType)] = count
	}
	return ledger.CreateParams{
		ShowtimeID:    r.ShowtimeID,
		SeatIDs:       r.SeatIDs,
		TicketCounts:  counts,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
	}
}

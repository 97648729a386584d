package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBookingConfirmed EventType = "BOOKING_CONFIRMED"
	EventBookingCancelled EventType = "BOOKING_CANCELLED"
)

// BookingEvent is the wire record published for every booking lifecycle
// transition. Consumers get enough to act on without a database read.
type BookingEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          EventType `json:"type"`
	BookingID     uuid.UUID `json:"booking_id"`
	BookingRef    string    `json:"booking_ref"`
	ShowtimeID    string    `json:"showtime_id"`
	SeatIDs       []string  `json:"seat_ids"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	TotalAmount   float64   `json:"total_amount"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType EventType) *BookingEvent {
	return &BookingEvent{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
}

// GetPartitionKey keys messages by showtime so all events for one showtime
// land on the same partition in order.
func (e *BookingEvent) GetPartitionKey() string {
	return e.ShowtimeID
}

func (e *BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

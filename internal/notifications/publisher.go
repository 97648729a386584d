package notifications

import (
	"context"

	"cinebook/internal/ledger"
	"cinebook/pkg/logger"
)

// BookingPublisher adapts the Kafka producer to the coordinator's publisher
// hook. Publishing is best-effort: a broker failure is logged and swallowed,
// the booking itself already succeeded.
type BookingPublisher struct {
	producer EventProducer
	log      *logger.Logger
}

func NewBookingPublisher(producer EventProducer) *BookingPublisher {
	return &BookingPublisher{producer: producer, log: logger.GetDefault()}
}

func (p *BookingPublisher) BookingConfirmed(ctx context.Context, booking *ledger.Booking) {
	p.publish(ctx, EventBookingConfirmed, booking)
}

func (p *BookingPublisher) BookingCancelled(ctx context.Context, booking *ledger.Booking) {
	p.publish(ctx, EventBookingCancelled, booking)
}

func (p *BookingPublisher) publish(ctx context.Context, eventType EventType, booking *ledger.Booking) {
	event := NewBookingEvent(eventType)
	event.BookingID = booking.ID
	event.BookingRef = booking.BookingRef
	event.ShowtimeID = booking.ShowtimeID
	event.SeatIDs = booking.SeatIDs()
	event.CustomerName = booking.CustomerName
	event.CustomerEmail = booking.CustomerEmail
	event.TotalAmount = booking.TotalAmount

	if err := p.producer.Publish(ctx, event); err != nil {
		p.log.ErrorWithContext(ctx, "failed to publish booking event", err, map[string]interface{}{
			"event_type": string(eventType),
			"booking_id": booking.ID.String(),
		})
	}
}

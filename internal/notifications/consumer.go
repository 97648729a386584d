package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"cinebook/pkg/logger"
)

// EventConsumer consumes booking events off Kafka. The shipped handler is an
// audit log; swapping in an email sender is a matter of another EventHandler.
type EventConsumer interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler processes one booking event.
type EventHandler interface {
	Handle(ctx context.Context, event *BookingEvent) error
}

type ConsumerConfig struct {
	Brokers          []string
	GroupID          string
	Topics           []string
	SessionTimeoutMs int
	HeartbeatMs      int
	OffsetOldest     bool
	AutoCommit       bool
}

func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:          []string{"localhost:9092"},
		GroupID:          "cinebook-booking-audit",
		Topics:           []string{"booking-events"},
		SessionTimeoutMs: 30000,
		HeartbeatMs:      3000,
		OffsetOldest:     false,
		AutoCommit:       true,
	}
}

type KafkaEventConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	handler       EventHandler
	log           *logger.Logger
	cancel        context.CancelFunc
}

func NewKafkaEventConsumer(config *ConsumerConfig, handler EventHandler) (EventConsumer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Consumer.Group.Session.Timeout = time.Duration(config.SessionTimeoutMs) * time.Millisecond
	saramaConfig.Consumer.Group.Heartbeat.Interval = time.Duration(config.HeartbeatMs) * time.Millisecond
	saramaConfig.Consumer.Return.Errors = true

	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	if config.AutoCommit {
		saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
		saramaConfig.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second
	}

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaEventConsumer{
		consumerGroup: consumerGroup,
		config:        config,
		handler:       handler,
		log:           logger.GetDefault(),
	}, nil
}

func (kec *KafkaEventConsumer) Start(ctx context.Context) error {
	ctx, kec.cancel = context.WithCancel(ctx)

	go kec.handleErrors()
	go func() {
		handler := &consumerGroupHandler{handler: kec.handler, log: kec.log}
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if err := kec.consumerGroup.Consume(ctx, kec.config.Topics, handler); err != nil {
					kec.log.Error("consumer group error", "error", err)
					time.Sleep(time.Second)
				}
			}
		}
	}()
	return nil
}

func (kec *KafkaEventConsumer) handleErrors() {
	for err := range kec.consumerGroup.Errors() {
		kec.log.Error("consumer group error", "error", err)
	}
}

func (kec *KafkaEventConsumer) Stop() error {
	if kec.cancel != nil {
		kec.cancel()
	}
	if err := kec.consumerGroup.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

type consumerGroupHandler struct {
	handler EventHandler
	log     *logger.Logger
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			if err := h.processMessage(session.Context(), message); err != nil {
				h.log.Error("failed to process booking event", "error", err,
					"topic", message.Topic, "partition", message.Partition, "offset", message.Offset)
			} else {
				session.MarkMessage(message, "")
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *consumerGroupHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event BookingEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal booking event: %w", err)
	}
	return h.handler.Handle(ctx, &event)
}

// AuditHandler writes every booking event to the structured log. It is the
// default consumer-side handler.
type AuditHandler struct {
	log *logger.Logger
}

func NewAuditHandler() *AuditHandler {
	return &AuditHandler{log: logger.GetDefault()}
}

func (a *AuditHandler) Handle(ctx context.Context, event *BookingEvent) error {
	a.log.InfoWithContext(ctx, "Booking Event", map[string]interface{}{
		"event_id":     event.ID.String(),
		"event_type":   string(event.Type),
		"booking_id":   event.BookingID.String(),
		"booking_ref":  event.BookingRef,
		"showtime_id":  event.ShowtimeID,
		"seats":        event.SeatIDs,
		"total_amount": event.TotalAmount,
		"occurred_at":  event.OccurredAt,
	})
	return nil
}

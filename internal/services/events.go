package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/carcino/internal/order"
)

// EventOrderCompleted is the event_type header of order completion messages.
const EventOrderCompleted = "order.completed"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderEventPublisher publishes order events to Kafka. A nil publisher is a no-op.
type OrderEventPublisher struct {
	writer messageWriter
}

// NewOrderEventPublisher returns nil when no brokers are configured.
func NewOrderEventPublisher(topic string, brokers ...string) *OrderEventPublisher {
	if len(brokers) == 0 {
		return nil
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &OrderEventPublisher{writer: w}
}

type orderCompletedPayload struct {
	SessionID     string `json:"session_id"`
	OrderID       string `json:"order_id"`
	ItemCount     int    `json:"item_count"`
	Total         string `json:"total"`
	PaymentMethod string `json:"payment_method"`
	Status        string `json:"status"`
	CompletedAt   string `json:"completed_at"`
}

// PublishOrderCompleted writes one message keyed by order id.
func (p *OrderEventPublisher) PublishOrderCompleted(ctx context.Context, sessionID string, record order.Record) error {
	if p == nil {
		return nil
	}

	payload, err := json.Marshal(orderCompletedPayload{
		SessionID:     sessionID,
		OrderID:       record.OrderID,
		ItemCount:     record.ItemCount(),
		Total:         record.Total.StringFixed(2),
		PaymentMethod: string(record.PaymentMethod),
		Status:        string(record.Status),
		CompletedAt:   record.OrderDate.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(record.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderCompleted)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *OrderEventPublisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}

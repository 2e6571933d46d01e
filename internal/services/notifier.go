package services

import (
	"context"
	"log"
	"time"

	"github.com/example/carcino/internal/order"
)

// OrderNotifier fans a completed order out to the admin chat, the customer's
// inbox and the event stream. Every channel is optional.
type OrderNotifier struct {
	Telegram *TelegramService
	Mailer   *Mailer
	Events   *OrderEventPublisher
	Timeout  time.Duration
}

// OrderCompleted delivers the notifications. Failures are logged only.
func (n *OrderNotifier) OrderCompleted(sessionID string, record order.Record) {
	if n == nil {
		return
	}

	timeout := n.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if n.Telegram != nil {
		if err := n.Telegram.NotifyNewOrder(ctx, record); err != nil {
			log.Printf("[Notify] telegram failed for %s: %v", record.OrderID, err)
		}
	}

	if n.Mailer != nil {
		if err := n.Mailer.SendOrderConfirmation(record); err != nil {
			log.Printf("[Notify] email failed for %s: %v", record.OrderID, err)
		}
	}

	if err := n.Events.PublishOrderCompleted(ctx, sessionID, record); err != nil {
		log.Printf("[Notify] event failed for %s: %v", record.OrderID, err)
	}
}

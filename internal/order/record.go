package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/carcino/internal/cart"
)

// DeliveryWindow is the time between placing an order and its estimated delivery.
const DeliveryWindow = 7 * 24 * time.Hour

// Record is the point-in-time snapshot written when checkout completes.
type Record struct {
	OrderID           string          `json:"orderId"`
	Items             []cart.LineItem `json:"items"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Shipping          decimal.Decimal `json:"shipping"`
	Tax               decimal.Decimal `json:"tax"`
	Total             decimal.Decimal `json:"total"`
	PaymentMethod     PaymentMethod   `json:"paymentMethod"`
	DeliveryAddress   DeliveryAddress `json:"deliveryAddress"`
	OrderDate         time.Time       `json:"orderDate"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery"`
	Status            Status          `json:"status"`
}

// NewRecord snapshots items and address into a new order record.
func NewRecord(id string, items []cart.LineItem, quote Quote, method PaymentMethod, address DeliveryAddress, placedAt time.Time) Record {
	snapshot := make([]cart.LineItem, len(items))
	copy(snapshot, items)

	placedAt = placedAt.UTC()
	return Record{
		OrderID:           id,
		Items:             snapshot,
		Subtotal:          quote.Subtotal,
		Shipping:          quote.Shipping,
		Tax:               quote.Tax,
		Total:             quote.Total,
		PaymentMethod:     method,
		DeliveryAddress:   address.Normalized(),
		OrderDate:         placedAt,
		EstimatedDelivery: placedAt.Add(DeliveryWindow),
		Status:            StatusFor(method),
	}
}

// NewOrderID returns an id of the form ORD-<unix ms>-<8 hex chars>.
func NewOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}

// ItemCount is the sum of quantities in the order.
func (r Record) ItemCount() int {
	n := 0
	for _, item := range r.Items {
		n += item.Quantity
	}
	return n
}

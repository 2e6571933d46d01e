package checkout

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/carcino/internal/order"
)

// Charge is what the gateway is asked to collect.
type Charge struct {
	OrderID string
	Method  order.PaymentMethod
	Amount  decimal.Decimal
}

// Gateway processes the payment of an order.
type Gateway interface {
	Process(ctx context.Context, charge Charge) error
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, charge Charge) error

func (f GatewayFunc) Process(ctx context.Context, charge Charge) error {
	return f(ctx, charge)
}

// SimulatedGateway stands in for a real payment provider by waiting a fixed
// latency and succeeding.
type SimulatedGateway struct {
	CashDelay   time.Duration
	OnlineDelay time.Duration
}

// NewSimulatedGateway uses 1.5s for cash on delivery and 2s for online methods.
func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{
		CashDelay:   1500 * time.Millisecond,
		OnlineDelay: 2 * time.Second,
	}
}

func (g *SimulatedGateway) Process(ctx context.Context, charge Charge) error {
	delay := g.OnlineDelay
	if charge.Method.IsCashOnDelivery() {
		delay = g.CashDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

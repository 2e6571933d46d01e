package checkout

import (
	"context"
	"time"

	"github.com/example/carcino/internal/order"
)

// Phase is one labelled step of the post-payment progress display.
type Phase struct {
	Index int    `json:"index"`
	Total int    `json:"total"`
	Label string `json:"label"`
}

var (
	cashPhases = []string{
		"Order confirmed successfully...",
		"Preparing your order...",
		"Scheduling delivery...",
		"Redirecting to order summary...",
	}
	onlinePhases = []string{
		"Payment confirmed successfully...",
		"Generating order details...",
		"Preparing order confirmation...",
		"Redirecting to order summary...",
	}
)

// Phases returns the four progress phases shown after a successful payment.
func Phases(method order.PaymentMethod) []Phase {
	labels := onlinePhases
	if method.IsCashOnDelivery() {
		labels = cashPhases
	}

	phases := make([]Phase, len(labels))
	for i, label := range labels {
		phases[i] = Phase{Index: i, Total: len(labels), Label: label}
	}
	return phases
}

// Animate emits each phase interval apart, then waits one more interval and
// returns the page to redirect to. Cancelling ctx or a failing emit stops it
// early with that error.
func Animate(ctx context.Context, interval time.Duration, phases []Phase, emit func(Phase) error) (string, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for _, phase := range phases {
		select {
		case <-ticker.C:
		case <-ctx.Done():
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := emit(phase); err != nil {
			return "", err
		}
	}

	select {
	case <-ticker.C:
	case <-ctx.Done():
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return PageConfirmation, nil
}

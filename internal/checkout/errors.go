package checkout

import (
	"errors"
	"fmt"

	"github.com/example/carcino/internal/order"
)

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrAddressMissing    = errors.New("delivery address is missing")
	ErrIllegalTransition = errors.New("illegal transition of checkout status")
)

// IllegalTransitionError names the refused state/event pair.
type IllegalTransitionError struct {
	From  State
	Event Event
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition of checkout status: %s on %s", e.Event, e.From)
}

func (e *IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// Pages a diverted checkout sends the client back to.
const (
	PageCart         = "/dashboard/cart"
	PageShop         = "/dashboard/shop"
	PageConfirmation = "/dashboard/order-confirmation"
)

// Diversion means the checkout cannot continue and the client must go back to Page.
type Diversion struct {
	Page   string
	Reason error
}

func (d *Diversion) Error() string {
	return fmt.Sprintf("checkout diverted to %s: %v", d.Page, d.Reason)
}

func (d *Diversion) Unwrap() error {
	return d.Reason
}

// PaymentError is a retryable failure of the payment step.
type PaymentError struct {
	Method order.PaymentMethod
	Err    error
}

func (e *PaymentError) Error() string {
	if e.Method.IsCashOnDelivery() {
		return "Order placement failed"
	}
	return "Payment failed"
}

// Hint is shown next to the error message.
func (e *PaymentError) Hint() string {
	return "Please try again or use a different payment method."
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

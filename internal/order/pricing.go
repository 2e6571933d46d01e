package order

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ShippingFee is the flat delivery charge added to every order.
	ShippingFee = decimal.NewFromInt(50)
	// TaxRate is the GST rate applied to the subtotal.
	TaxRate = decimal.RequireFromString("0.18")
)

// Quote holds the amounts charged for an order.
type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// NewQuote computes tax and total for subtotal, rounded to two decimals.
func NewQuote(subtotal decimal.Decimal) Quote {
	tax := subtotal.Mul(TaxRate).Round(2)
	return Quote{
		Subtotal: subtotal,
		Shipping: ShippingFee,
		Tax:      tax,
		Total:    subtotal.Add(ShippingFee).Add(tax).Round(2),
	}
}

// PaymentMethod is the closed set of accepted payment options.
type PaymentMethod string

const (
	PaymentCard       PaymentMethod = "card"
	PaymentUPI        PaymentMethod = "upi"
	PaymentNetBanking PaymentMethod = "netbanking"
	PaymentCOD        PaymentMethod = "cod"
)

// ErrUnknownPaymentMethod is returned for methods outside the accepted set.
var ErrUnknownPaymentMethod = errors.New("unsupported payment method")

// ParsePaymentMethod validates s against the accepted methods.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	switch m {
	case PaymentCard, PaymentUPI, PaymentNetBanking, PaymentCOD:
		return m, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownPaymentMethod, s)
}

// IsCashOnDelivery reports whether payment is collected at the door.
func (m PaymentMethod) IsCashOnDelivery() bool {
	return m == PaymentCOD
}

// DisplayName is the human readable name of the method.
func (m PaymentMethod) DisplayName() string {
	switch m {
	case PaymentCard:
		return "Credit/Debit Card"
	case PaymentUPI:
		return "UPI"
	case PaymentNetBanking:
		return "Net Banking"
	case PaymentCOD:
		return "Cash on Delivery"
	default:
		return "Unknown"
	}
}

// Status of a placed order.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPaid      Status = "paid"
)

// StatusFor returns confirmed for cash on delivery and paid otherwise.
func StatusFor(m PaymentMethod) Status {
	if m.IsCashOnDelivery() {
		return StatusConfirmed
	}
	return StatusPaid
}

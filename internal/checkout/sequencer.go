package checkout

import (
	"context"
	"log"
	"time"

	"github.com/example/carcino/internal/cart"
	"github.com/example/carcino/internal/order"
)

// Persistence stores the checkout's own state, the transient delivery address
// and the finished order.
type Persistence interface {
	SaveState(snapshot Snapshot)
	// SaveAddress stores addr, or removes the stored address when addr is nil.
	SaveAddress(addr *order.DeliveryAddress)
	SaveOrder(record order.Record)
}

// Option customises a Sequencer.
type Option func(*Sequencer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sequencer) { s.now = now }
}

// WithOrderIDs replaces order.NewOrderID.
func WithOrderIDs(newID func(time.Time) string) Option {
	return func(s *Sequencer) { s.newID = newID }
}

// Sequencer runs one checkout over a cart. It is not safe for concurrent use.
type Sequencer struct {
	state   State
	cart    *cart.Cart
	address *order.DeliveryAddress
	persist Persistence
	gateway Gateway

	now   func() time.Time
	newID func(time.Time) string
}

// NewSequencer resumes a checkout in state with the previously captured
// address (nil when none).
func NewSequencer(state State, c *cart.Cart, address *order.DeliveryAddress, persist Persistence, gateway Gateway, opts ...Option) *Sequencer {
	s := &Sequencer{
		state:   state,
		cart:    c,
		address: address,
		persist: persist,
		gateway: gateway,
		now:     time.Now,
		newID:   order.NewOrderID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.state == "" {
		s.state = StateAddressPending
	}
	return s
}

// State returns the current state.
func (s *Sequencer) State() State {
	return s.state
}

// Address returns a copy of the captured address, or nil.
func (s *Sequencer) Address() *order.DeliveryAddress {
	if s.address == nil {
		return nil
	}
	addr := s.address.Normalized()
	return &addr
}

// Quote prices the current cart.
func (s *Sequencer) Quote() order.Quote {
	return order.NewQuote(s.cart.Subtotal())
}

// SubmitAddress validates addr and captures it for the payment step.
// Invalid input leaves the state untouched.
func (s *Sequencer) SubmitAddress(addr order.DeliveryAddress) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	if s.cart.IsEmpty() {
		return &Diversion{Page: PageCart, Reason: ErrEmptyCart}
	}

	next, err := Transition(s.state, EventAddressSubmitted)
	if err != nil {
		return err
	}

	normalized := addr.Normalized()
	s.address = &normalized
	s.persist.SaveAddress(s.address)
	s.moveTo(next)
	return nil
}

// EnterPayment is called on arrival at the payment step. An empty cart or a
// missing address diverts the client back to the cart page.
func (s *Sequencer) EnterPayment() error {
	if err := s.checkReady(); err != nil {
		return err
	}

	next, err := Transition(s.state, EventPaymentEntered)
	if err != nil {
		return err
	}
	s.moveTo(next)
	return nil
}

// SubmitPayment charges the cart with method. On success the order record is
// persisted and the cart and address are cleared. A gateway failure returns a
// *PaymentError and rolls back to PaymentPending with cart and address intact.
func (s *Sequencer) SubmitPayment(ctx context.Context, method order.PaymentMethod) (order.Record, error) {
	if _, err := order.ParsePaymentMethod(string(method)); err != nil {
		return order.Record{}, err
	}
	if err := s.checkReady(); err != nil {
		return order.Record{}, err
	}
	if s.state == StateAddressCaptured {
		s.mustMove(EventPaymentEntered)
	}

	next, err := Transition(s.state, EventPaymentSubmitted)
	if err != nil {
		return order.Record{}, err
	}
	s.moveTo(next)

	quote := s.Quote()
	orderID := s.newID(s.now())

	if err := s.gateway.Process(ctx, Charge{OrderID: orderID, Method: method, Amount: quote.Total}); err != nil {
		log.Printf("[Checkout] payment for %s via %s failed: %v", orderID, method, err)
		s.mustMove(EventPaymentFailed)
		return order.Record{}, &PaymentError{Method: method, Err: err}
	}

	record := order.NewRecord(orderID, s.cart.Items(), quote, method, *s.address, s.now())
	s.persist.SaveOrder(record)

	s.cart.Clear()
	s.address = nil
	s.persist.SaveAddress(nil)

	s.mustMove(EventPaymentSucceeded)
	log.Printf("[Checkout] order %s completed, total %s", record.OrderID, record.Total.StringFixed(2))
	return record, nil
}

// Restart begins a new checkout after a completed one.
func (s *Sequencer) Restart() error {
	next, err := Transition(s.state, EventRestart)
	if err != nil {
		return err
	}
	s.moveTo(next)
	return nil
}

func (s *Sequencer) checkReady() error {
	var reason error
	switch {
	case s.cart.IsEmpty():
		reason = ErrEmptyCart
	case s.address == nil:
		reason = ErrAddressMissing
	default:
		return nil
	}

	if next, err := Transition(s.state, EventDiverted); err == nil {
		s.moveTo(next)
	}
	return &Diversion{Page: PageCart, Reason: reason}
}

func (s *Sequencer) mustMove(event Event) {
	next, err := Transition(s.state, event)
	if err != nil {
		log.Printf("[Checkout] %v", err)
		return
	}
	s.moveTo(next)
}

func (s *Sequencer) moveTo(next State) {
	s.state = next
	s.persist.SaveState(Snapshot{State: next, UpdatedAt: s.now().UTC()})
}

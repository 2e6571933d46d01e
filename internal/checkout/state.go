// Package checkout drives a cart through address capture, payment and order
// creation, and reads the resulting order back for confirmation.
package checkout

import (
	"fmt"
	"time"
)

// State of a checkout.
type State string

const (
	StateAddressPending  State = "address_pending"
	StateAddressCaptured State = "address_captured"
	StatePaymentPending  State = "payment_pending"
	StateProcessing      State = "processing"
	StateCompleted       State = "completed"
)

// IsTerminal reports whether no further checkout events apply besides Restart.
func (s State) IsTerminal() bool {
	return s == StateCompleted
}

func (s State) String() string {
	return string(s)
}

// Event moves a checkout between states.
type Event string

const (
	EventAddressSubmitted Event = "address_submitted"
	EventPaymentEntered   Event = "payment_entered"
	EventPaymentSubmitted Event = "payment_submitted"
	EventPaymentSucceeded Event = "payment_succeeded"
	EventPaymentFailed    Event = "payment_failed"
	EventDiverted         Event = "diverted"
	EventRestart          Event = "restart"
)

type transitionKey struct {
	from  State
	event Event
}

var transitions = map[transitionKey]State{
	{StateAddressPending, EventAddressSubmitted}:  StateAddressCaptured,
	{StateAddressCaptured, EventAddressSubmitted}: StateAddressCaptured,
	{StatePaymentPending, EventAddressSubmitted}:  StateAddressCaptured,

	{StateAddressCaptured, EventPaymentEntered}: StatePaymentPending,
	{StatePaymentPending, EventPaymentEntered}:  StatePaymentPending,

	{StatePaymentPending, EventPaymentSubmitted}: StateProcessing,
	{StateProcessing, EventPaymentSucceeded}:     StateCompleted,
	{StateProcessing, EventPaymentFailed}:        StatePaymentPending,

	{StateAddressPending, EventDiverted}:  StateAddressPending,
	{StateAddressCaptured, EventDiverted}: StateAddressPending,
	{StatePaymentPending, EventDiverted}:  StateAddressPending,

	{StateCompleted, EventRestart}: StateAddressPending,
}

// Transition returns the state reached from s on event, or an
// *IllegalTransitionError when the pair is not allowed.
func Transition(s State, event Event) (State, error) {
	next, ok := transitions[transitionKey{s, event}]
	if !ok {
		return s, &IllegalTransitionError{From: s, Event: event}
	}
	return next, nil
}

// CanTransition reports whether event applies to s.
func CanTransition(s State, event Event) bool {
	_, ok := transitions[transitionKey{s, event}]
	return ok
}

// StaleProcessingAfter is how long a persisted Processing state is trusted.
// Older ones belong to an abandoned request and resume as PaymentPending.
const StaleProcessingAfter = time.Minute

// Snapshot is the persisted form of a checkout's state.
type Snapshot struct {
	State     State     `json:"state"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Resume returns the state a request should continue from.
func (s Snapshot) Resume(now time.Time) State {
	switch s.State {
	case "":
		return StateAddressPending
	case StateProcessing:
		if now.Sub(s.UpdatedAt) > StaleProcessingAfter {
			return StatePaymentPending
		}
	}
	return s.State
}

func (s Snapshot) String() string {
	return fmt.Sprintf("%s@%s", s.State, s.UpdatedAt.Format(time.RFC3339))
}

package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/carcino/internal/cart"
	"github.com/example/carcino/internal/order"
)

type recordingPersistence struct {
	states    []State
	address   *order.DeliveryAddress
	addresses int
	orders    []order.Record
}

func (p *recordingPersistence) SaveState(s Snapshot) {
	p.states = append(p.states, s.State)
}

func (p *recordingPersistence) SaveAddress(addr *order.DeliveryAddress) {
	p.addresses++
	p.address = addr
}

func (p *recordingPersistence) SaveOrder(record order.Record) {
	p.orders = append(p.orders, record)
}

var instantGateway = GatewayFunc(func(context.Context, Charge) error { return nil })

var fixedNow = time.Date(2025, 2, 14, 11, 0, 0, 0, time.UTC)

func testAddress() order.DeliveryAddress {
	return order.DeliveryAddress{
		Name:        "Rahul Verma",
		Email:       "rahul@example.com",
		Phone:       "9123456780",
		Address:     "221B Residency Road",
		City:        "Pune",
		State:       "Maharashtra",
		Pincode:     "411001",
		Coordinates: &order.Coordinates{Lat: 18.52, Lng: 73.85},
	}
}

func newTestSequencer(t *testing.T, c *cart.Cart, gw Gateway) (*Sequencer, *recordingPersistence) {
	t.Helper()
	p := &recordingPersistence{}
	seq := NewSequencer(StateAddressPending, c, nil, p, gw,
		WithClock(func() time.Time { return fixedNow }),
		WithOrderIDs(func(time.Time) string { return "ORD-TEST-1" }),
	)
	return seq, p
}

func filledCart() *cart.Cart {
	c := cart.New(nil, nil)
	c.AddItem(cart.LineItem{ID: "p1", Name: "Paracetamol Tablet", UnitPrice: decimal.NewFromInt(400)}, 2)
	c.AddItem(cart.LineItem{ID: "p2", Name: "Face Wash", UnitPrice: decimal.NewFromInt(200)}, 1)
	return c
}

func TestCheckout_CompletesAndClearsCart(t *testing.T) {
	c := filledCart()
	before := c.Items()
	seq, p := newTestSequencer(t, c, instantGateway)

	require.NoError(t, seq.SubmitAddress(testAddress()))
	assert.Equal(t, StateAddressCaptured, seq.State())
	require.NoError(t, seq.EnterPayment())
	assert.Equal(t, StatePaymentPending, seq.State())

	record, err := seq.SubmitPayment(context.Background(), order.PaymentUPI)
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, seq.State())
	assert.Equal(t, 0, c.Count())
	require.Len(t, p.orders, 1)
	assert.Equal(t, before, p.orders[0].Items)
	assert.Equal(t, record, p.orders[0])
	assert.Nil(t, p.address)
	assert.Nil(t, seq.Address())

	assert.Equal(t, "ORD-TEST-1", record.OrderID)
	assert.Equal(t, "1000", record.Subtotal.String())
	assert.Equal(t, "180.00", record.Tax.StringFixed(2))
	assert.Equal(t, "1230.00", record.Total.StringFixed(2))
	assert.Equal(t, order.StatusPaid, record.Status)
	assert.Equal(t, fixedNow.Add(7*24*time.Hour), record.EstimatedDelivery)

	assert.Equal(t, []State{StateAddressCaptured, StatePaymentPending, StateProcessing, StateCompleted}, p.states)
}

func TestCheckout_EmptyCartNeverReachesPaymentPending(t *testing.T) {
	c := cart.New(nil, nil)
	addr := testAddress()
	p := &recordingPersistence{}
	seq := NewSequencer(StateAddressCaptured, c, &addr, p, instantGateway)

	err := seq.EnterPayment()

	var diversion *Diversion
	require.ErrorAs(t, err, &diversion)
	assert.Equal(t, PageCart, diversion.Page)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, StateAddressPending, seq.State())
	assert.NotContains(t, p.states, StatePaymentPending)

	_, err = seq.SubmitPayment(context.Background(), order.PaymentCard)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, p.orders)
}

func TestCheckout_SubmitAddressRefusesEmptyCart(t *testing.T) {
	seq, p := newTestSequencer(t, cart.New(nil, nil), instantGateway)

	err := seq.SubmitAddress(testAddress())

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, StateAddressPending, seq.State())
	assert.Zero(t, p.addresses)
}

func TestCheckout_MissingAddressDiverts(t *testing.T) {
	seq := NewSequencer(StateAddressCaptured, filledCart(), nil, &recordingPersistence{}, instantGateway)

	err := seq.EnterPayment()

	assert.ErrorIs(t, err, ErrAddressMissing)
	assert.Equal(t, StateAddressPending, seq.State())
}

func TestCheckout_InvalidAddressLeavesStateUntouched(t *testing.T) {
	seq, p := newTestSequencer(t, filledCart(), instantGateway)
	addr := testAddress()
	addr.Coordinates = nil

	err := seq.SubmitAddress(addr)

	var verr *order.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StateAddressPending, seq.State())
	assert.Empty(t, p.states)
	assert.Zero(t, p.addresses)
}

func TestCheckout_GatewayFailureRollsBack(t *testing.T) {
	c := filledCart()
	failing := GatewayFunc(func(context.Context, Charge) error { return errors.New("declined") })
	seq, p := newTestSequencer(t, c, failing)
	require.NoError(t, seq.SubmitAddress(testAddress()))
	require.NoError(t, seq.EnterPayment())

	_, err := seq.SubmitPayment(context.Background(), order.PaymentCOD)

	var payErr *PaymentError
	require.ErrorAs(t, err, &payErr)
	assert.Equal(t, "Order placement failed", payErr.Error())
	assert.Equal(t, StatePaymentPending, seq.State())
	assert.Equal(t, 3, c.Count())
	assert.NotNil(t, seq.Address())
	assert.Empty(t, p.orders)

	assert.Equal(t, "Payment failed", (&PaymentError{Method: order.PaymentCard}).Error())
}

func TestCheckout_RetryAfterFailureSucceeds(t *testing.T) {
	attempts := 0
	flaky := GatewayFunc(func(context.Context, Charge) error {
		attempts++
		if attempts == 1 {
			return errors.New("timeout")
		}
		return nil
	})
	seq, p := newTestSequencer(t, filledCart(), flaky)
	require.NoError(t, seq.SubmitAddress(testAddress()))

	_, err := seq.SubmitPayment(context.Background(), order.PaymentCard)
	require.Error(t, err)

	record, err := seq.SubmitPayment(context.Background(), order.PaymentCard)
	require.NoError(t, err)
	assert.Len(t, p.orders, 1)
	assert.Equal(t, record.OrderID, p.orders[0].OrderID)
}

func TestCheckout_CancelledContextRollsBack(t *testing.T) {
	seq, _ := newTestSequencer(t, filledCart(), &SimulatedGateway{CashDelay: time.Hour, OnlineDelay: time.Hour})
	require.NoError(t, seq.SubmitAddress(testAddress()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := seq.SubmitPayment(ctx, order.PaymentNetBanking)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatePaymentPending, seq.State())
}

func TestCheckout_ChargesQuotedTotal(t *testing.T) {
	var charged Charge
	gw := GatewayFunc(func(_ context.Context, c Charge) error {
		charged = c
		return nil
	})
	seq, _ := newTestSequencer(t, filledCart(), gw)
	require.NoError(t, seq.SubmitAddress(testAddress()))

	_, err := seq.SubmitPayment(context.Background(), order.PaymentCOD)
	require.NoError(t, err)

	assert.Equal(t, "ORD-TEST-1", charged.OrderID)
	assert.Equal(t, order.PaymentCOD, charged.Method)
	assert.Equal(t, "1230.00", charged.Amount.StringFixed(2))
}

func TestCheckout_RejectsUnknownMethod(t *testing.T) {
	seq, _ := newTestSequencer(t, filledCart(), instantGateway)
	require.NoError(t, seq.SubmitAddress(testAddress()))

	_, err := seq.SubmitPayment(context.Background(), order.PaymentMethod("cheque"))

	assert.Error(t, err)
	assert.Equal(t, StateAddressCaptured, seq.State())
}

func TestCheckout_CompletedRequiresRestart(t *testing.T) {
	seq, _ := newTestSequencer(t, filledCart(), instantGateway)
	require.NoError(t, seq.SubmitAddress(testAddress()))
	_, err := seq.SubmitPayment(context.Background(), order.PaymentCard)
	require.NoError(t, err)

	assert.ErrorIs(t, seq.EnterPayment(), ErrEmptyCart)
	assert.Equal(t, StateCompleted, seq.State())

	require.NoError(t, seq.Restart())
	assert.Equal(t, StateAddressPending, seq.State())
	assert.ErrorIs(t, seq.Restart(), ErrIllegalTransition)
}

func TestSimulatedGateway_Delays(t *testing.T) {
	gw := NewSimulatedGateway()
	assert.Equal(t, 1500*time.Millisecond, gw.CashDelay)
	assert.Equal(t, 2*time.Second, gw.OnlineDelay)

	fast := &SimulatedGateway{CashDelay: time.Millisecond, OnlineDelay: time.Millisecond}
	assert.NoError(t, fast.Process(context.Background(), Charge{Method: order.PaymentCOD}))
}

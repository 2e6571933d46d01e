package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/carcino/internal/cart"
	"github.com/example/carcino/internal/history"
	"github.com/example/carcino/internal/order"
)

func recordWith(names ...string) order.Record {
	items := make([]cart.LineItem, len(names))
	for i, name := range names {
		items[i] = cart.LineItem{ID: name, Name: name, UnitPrice: decimal.NewFromInt(10), Quantity: 1}
	}
	return order.NewRecord("ORD-42", items, order.NewQuote(decimal.NewFromInt(int64(10*len(names)))), order.PaymentCard, testAddress(), time.Now())
}

func TestConfirm_MedicineOrderAppendsOnce(t *testing.T) {
	hist := history.NewLog(nil, nil)
	record := recordWith("Paracetamol Tablet")

	added, err := Confirm(record, hist)
	require.NoError(t, err)
	assert.True(t, added)

	for i := 0; i < 3; i++ {
		added, err = Confirm(record, hist)
		require.NoError(t, err)
		assert.False(t, added)
	}

	items := hist.ByKind(history.KindMedicine)
	require.Len(t, items, 1)
	assert.Equal(t, "Medicine Order - ORD-42", items[0].Data)

	details, ok := items[0].Details.(history.MedicineDetails)
	require.True(t, ok)
	assert.Equal(t, "online_purchase", details.PurchaseType)
	assert.Equal(t, "DermaSense Shop", details.Source)
	assert.Equal(t, record.Total, details.Total)
}

func TestConfirm_NonMedicineOrderSkipped(t *testing.T) {
	hist := history.NewLog(nil, nil)

	added, err := Confirm(recordWith("Sunscreen SPF 50", "Face Wash"), hist)

	require.NoError(t, err)
	assert.False(t, added)
	assert.Zero(t, hist.Len())
}

func TestContainsMedicine_CaseInsensitive(t *testing.T) {
	for _, name := range []string{"ANTIFUNGAL CREAM", "Cough Syrup", "Eye Drops", "Vitamin E Capsule", "Zinc Ointment", "Allergy medicine"} {
		assert.True(t, ContainsMedicine(recordWith(name)), name)
	}
	assert.False(t, ContainsMedicine(recordWith("Cotton Pads")))
}

func TestCheckoutThenConfirm(t *testing.T) {
	c := cart.New(nil, nil)
	c.AddItem(cart.LineItem{ID: "m1", Name: "Paracetamol Tablet", UnitPrice: decimal.NewFromInt(1000)}, 1)
	seq, p := newTestSequencer(t, c, instantGateway)
	require.NoError(t, seq.SubmitAddress(testAddress()))

	record, err := seq.SubmitPayment(context.Background(), order.PaymentCOD)
	require.NoError(t, err)
	require.Len(t, p.orders, 1)

	hist := history.NewLog(nil, nil)
	_, err = Confirm(p.orders[0], hist)
	require.NoError(t, err)
	_, err = Confirm(p.orders[0], hist)
	require.NoError(t, err)

	assert.Len(t, hist.ByKind(history.KindMedicine), 1)
	assert.True(t, hist.HasOrder(record.OrderID))
	assert.Equal(t, order.StatusConfirmed, record.Status)
}

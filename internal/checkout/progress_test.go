package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/carcino/internal/order"
)

func TestPhases(t *testing.T) {
	cod := Phases(order.PaymentCOD)
	online := Phases(order.PaymentCard)

	require.Len(t, cod, 4)
	require.Len(t, online, 4)
	assert.Equal(t, "Order confirmed successfully...", cod[0].Label)
	assert.Equal(t, "Scheduling delivery...", cod[2].Label)
	assert.Equal(t, "Payment confirmed successfully...", online[0].Label)
	assert.Equal(t, "Redirecting to order summary...", online[3].Label)
	assert.Equal(t, 3, online[3].Index)
	assert.Equal(t, 4, online[3].Total)
}

func TestAnimate_EmitsInOrderThenRedirects(t *testing.T) {
	var labels []string

	page, err := Animate(context.Background(), time.Millisecond, Phases(order.PaymentUPI), func(p Phase) error {
		labels = append(labels, p.Label)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, PageConfirmation, page)
	assert.Equal(t, []string{
		"Payment confirmed successfully...",
		"Generating order details...",
		"Preparing order confirmation...",
		"Redirecting to order summary...",
	}, labels)
}

func TestAnimate_StopsWhenClientLeaves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	emitted := 0

	_, err := Animate(ctx, time.Millisecond, Phases(order.PaymentCOD), func(Phase) error {
		emitted++
		if emitted == 2 {
			cancel()
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, emitted)
}

func TestAnimate_EmitErrorStops(t *testing.T) {
	broken := errors.New("broken pipe")

	_, err := Animate(context.Background(), time.Millisecond, Phases(order.PaymentCOD), func(Phase) error {
		return broken
	})

	assert.ErrorIs(t, err, broken)
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/example/carcino/internal/cart"
	"github.com/example/carcino/internal/order"
)

func sampleRecord() order.Record {
	items := []cart.LineItem{
		{ID: "p1", Name: "Sunscreen <SPF 50>", UnitPrice: decimal.RequireFromString("1200"), Quantity: 2},
		{ID: "p2", Name: "Antibiotic Ointment", UnitPrice: decimal.RequireFromString("99.50"), Quantity: 1},
	}
	addr := order.DeliveryAddress{
		Name: "Asha Rao", Email: "asha@example.com", Phone: "9876543210",
		Address: "12 MG Road, Shanthala Nagar", City: "Bengaluru", State: "Karnataka", Pincode: "560001",
		Coordinates: &order.Coordinates{Lat: 12.97, Lng: 77.59},
	}
	placed := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return order.NewRecord("ORD-1-abcdef12", items, order.NewQuote(decimal.RequireFromString("2499.50")), order.PaymentUPI, addr, placed)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "₹0.00", FormatPrice(decimal.Zero))
	assert.Equal(t, "₹999.50", FormatPrice(decimal.RequireFromString("999.5")))
	assert.Equal(t, "₹1,234,567.89", FormatPrice(decimal.RequireFromString("1234567.891")))
	assert.Equal(t, "-₹1,000.00", FormatPrice(decimal.RequireFromString("-1000")))
}

func TestTelegramNotifyNewOrder(t *testing.T) {
	var got telegramMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botbot-token/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	svc := NewTelegramService("bot-token", "42")
	svc.apiBase = srv.URL

	require.NoError(t, svc.NotifyNewOrder(context.Background(), sampleRecord()))

	assert.Equal(t, "42", got.ChatID)
	assert.Equal(t, "HTML", got.ParseMode)
	assert.Contains(t, got.Text, "ORD-1-abcdef12")
	assert.Contains(t, got.Text, "Sunscreen &lt;SPF 50&gt;")
	assert.Contains(t, got.Text, "2 x ₹1,200.00 = ₹2,400.00")
	assert.Contains(t, got.Text, "UPI")
	assert.Contains(t, got.Text, "✅ Paid")
}

func TestTelegram_Unconfigured(t *testing.T) {
	assert.NoError(t, NewTelegramService("", "42").NotifyNewOrder(context.Background(), sampleRecord()))
	assert.NoError(t, NewTelegramService("token", "").NotifyNewOrder(context.Background(), sampleRecord()))
}

func TestTelegram_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	svc := NewTelegramService("bot-token", "42")
	svc.apiBase = srv.URL
	assert.Error(t, svc.SendToAdmin(context.Background(), "hi"))
}

func TestMailer_SendOrderConfirmation(t *testing.T) {
	var sent *gomail.Message
	m := &Mailer{from: "orders@carcino.ai", send: func(msg *gomail.Message) error {
		sent = msg
		return nil
	}}

	require.NoError(t, m.SendOrderConfirmation(sampleRecord()))
	require.NotNil(t, sent)

	assert.Equal(t, []string{"asha@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"Order Confirmed - ORD-1-abcdef12"}, sent.GetHeader("Subject"))

	var raw bytes.Buffer
	_, err := sent.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "ORD-1-abcdef12")
}

func TestMailer_DisabledOrFailing(t *testing.T) {
	assert.NoError(t, NewMailer("", 587, "", "", "orders@carcino.ai").SendOrderConfirmation(sampleRecord()))

	failing := &Mailer{from: "x@y.z", send: func(*gomail.Message) error { return errors.New("smtp down") }}
	assert.Error(t, failing.SendOrderConfirmation(sampleRecord()))
}

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestOrderEventPublisher(t *testing.T) {
	writer := &recordingWriter{}
	pub := &OrderEventPublisher{writer: writer}

	require.NoError(t, pub.PublishOrderCompleted(context.Background(), "sess-1", sampleRecord()))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "ORD-1-abcdef12", string(msg.Key))
	assert.Equal(t, []kafka.Header{{Key: "event_type", Value: []byte(EventOrderCompleted)}}, msg.Headers)

	var payload orderCompletedPayload
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "sess-1", payload.SessionID)
	assert.Equal(t, 3, payload.ItemCount)
	assert.Equal(t, "upi", payload.PaymentMethod)
	assert.Equal(t, "paid", payload.Status)

	require.NoError(t, pub.Close())
	assert.True(t, writer.closed)
}

func TestOrderEventPublisher_NilAndErrors(t *testing.T) {
	pub := NewOrderEventPublisher("order-completed")
	assert.Nil(t, pub)
	assert.NoError(t, pub.PublishOrderCompleted(context.Background(), "s", sampleRecord()))
	assert.NoError(t, pub.Close())

	failing := &OrderEventPublisher{writer: &recordingWriter{err: errors.New("broker down")}}
	err := failing.PublishOrderCompleted(context.Background(), "s", sampleRecord())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "broker down"))
}

func TestOrderNotifier_FansOut(t *testing.T) {
	var telegramCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		telegramCalls++
	}))
	defer srv.Close()

	tg := NewTelegramService("bot-token", "42")
	tg.apiBase = srv.URL

	var mailed int
	writer := &recordingWriter{}
	n := &OrderNotifier{
		Telegram: tg,
		Mailer:   &Mailer{from: "x@y.z", send: func(*gomail.Message) error { mailed++; return nil }},
		Events:   &OrderEventPublisher{writer: writer},
	}

	n.OrderCompleted("sess-1", sampleRecord())

	assert.Equal(t, 1, telegramCalls)
	assert.Equal(t, 1, mailed)
	assert.Len(t, writer.messages, 1)
}

func TestOrderNotifier_FailuresAreSwallowed(t *testing.T) {
	n := &OrderNotifier{
		Mailer: &Mailer{from: "x@y.z", send: func(*gomail.Message) error { return errors.New("smtp down") }},
		Events: &OrderEventPublisher{writer: &recordingWriter{err: errors.New("broker down")}},
	}
	assert.NotPanics(t, func() { n.OrderCompleted("s", sampleRecord()) })

	var nilNotifier *OrderNotifier
	assert.NotPanics(t, func() { nilNotifier.OrderCompleted("s", sampleRecord()) })
}

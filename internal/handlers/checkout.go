package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/example/carcino/internal/checkout"
	"github.com/example/carcino/internal/order"
	"github.com/example/carcino/internal/services"
	"github.com/example/carcino/internal/session"
)

// CheckoutHandler drives the address, payment and progress steps of checkout.
type CheckoutHandler struct {
	notifier *services.OrderNotifier
	interval time.Duration
	opts     []checkout.Option
}

// NewCheckoutHandler constructs CheckoutHandler. interval paces the progress stream.
func NewCheckoutHandler(notifier *services.OrderNotifier, interval time.Duration, opts ...checkout.Option) *CheckoutHandler {
	return &CheckoutHandler{notifier: notifier, interval: interval, opts: opts}
}

type paymentRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

func (h *CheckoutHandler) sequencer(c *fiber.Ctx) (*session.Session, *checkout.Sequencer, error) {
	s, err := currentSession(c)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Checkout(h.opts...), nil
}

func checkoutView(seq *checkout.Sequencer, s *session.Session) fiber.Map {
	crt := s.Cart()
	return fiber.Map{
		"state":   seq.State(),
		"address": seq.Address(),
		"items":   crt.Items(),
		"count":   crt.Count(),
		"quote":   seq.Quote(),
	}
}

// GetCheckout reports the checkout state, captured address and quote.
func (h *CheckoutHandler) GetCheckout(c *fiber.Ctx) error {
	s, seq, err := h.sequencer(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": checkoutView(seq, s)})
}

// SubmitAddress captures the delivery address.
func (h *CheckoutHandler) SubmitAddress(c *fiber.Ctx) error {
	var addr order.DeliveryAddress
	if err := c.BodyParser(&addr); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	s, seq, err := h.sequencer(c)
	if err != nil {
		return err
	}

	if err := seq.SubmitAddress(addr); err != nil {
		return checkoutFailure(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": checkoutView(seq, s)})
}

// EnterPayment is called when the client opens the payment step.
func (h *CheckoutHandler) EnterPayment(c *fiber.Ctx) error {
	s, seq, err := h.sequencer(c)
	if err != nil {
		return err
	}

	if err := seq.EnterPayment(); err != nil {
		return checkoutFailure(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": checkoutView(seq, s)})
}

// SubmitPayment charges the cart and completes the order.
func (h *CheckoutHandler) SubmitPayment(c *fiber.Ctx) error {
	var req paymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	method, err := order.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return failure(c, fiber.StatusBadRequest, "Please select a payment method", nil)
	}

	s, seq, err := h.sequencer(c)
	if err != nil {
		return err
	}

	record, err := seq.SubmitPayment(c.UserContext(), method)
	if err != nil {
		return checkoutFailure(c, err)
	}

	go h.notifier.OrderCompleted(s.ID, record)

	return c.JSON(fiber.Map{
		"success":  true,
		"data":     record,
		"phases":   checkout.Phases(method),
		"redirect": checkout.PageConfirmation,
	})
}

// Restart starts a new checkout after a completed one.
func (h *CheckoutHandler) Restart(c *fiber.Ctx) error {
	s, seq, err := h.sequencer(c)
	if err != nil {
		return err
	}

	if err := seq.Restart(); err != nil {
		return checkoutFailure(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": checkoutView(seq, s)})
}

// Progress streams the post-payment phases as server-sent events, ending with
// a redirect event. The method comes from the query or the current order.
func (h *CheckoutHandler) Progress(c *fiber.Ctx) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}

	raw := c.Query("method")
	if raw == "" {
		if record, ok := s.CurrentOrder(); ok {
			raw = string(record.PaymentMethod)
		}
	}
	method, err := order.ParsePaymentMethod(raw)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "payment method required")
	}

	phases := checkout.Phases(method)
	interval := h.interval

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		emit := func(event string, payload interface{}) error {
			data, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
				return err
			}
			return w.Flush()
		}

		page, err := checkout.Animate(context.Background(), interval, phases, func(p checkout.Phase) error {
			return emit("phase", p)
		})
		if err != nil {
			log.Printf("[Checkout] progress stream stopped: %v", err)
			return
		}
		if err := emit("redirect", fiber.Map{"page": page}); err != nil {
			log.Printf("[Checkout] progress stream stopped: %v", err)
		}
	}))

	return nil
}

func checkoutFailure(c *fiber.Ctx, err error) error {
	var validation *order.ValidationError
	var diversion *checkout.Diversion
	var payment *checkout.PaymentError

	switch {
	case errors.As(err, &validation):
		return failure(c, fiber.StatusUnprocessableEntity, "Invalid delivery address", fiber.Map{"fields": validation.Fields})
	case errors.As(err, &diversion):
		return failure(c, fiber.StatusConflict, diversionMessage(diversion.Reason), fiber.Map{"redirect": diversion.Page})
	case errors.As(err, &payment):
		return failure(c, fiber.StatusPaymentRequired, payment.Error(), fiber.Map{"hint": payment.Hint()})
	case errors.Is(err, checkout.ErrIllegalTransition):
		return failure(c, fiber.StatusConflict, err.Error(), nil)
	case errors.Is(err, order.ErrUnknownPaymentMethod):
		return failure(c, fiber.StatusBadRequest, "Please select a payment method", nil)
	default:
		return err
	}
}

func diversionMessage(reason error) string {
	switch {
	case errors.Is(reason, checkout.ErrEmptyCart):
		return "Your cart is empty"
	case errors.Is(reason, checkout.ErrAddressMissing):
		return "Please provide your delivery address first"
	default:
		return reason.Error()
	}
}

package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/carcino/internal/checkout"
)

// OrderHandler serves the confirmation of the last completed order.
type OrderHandler struct{}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler() *OrderHandler {
	return &OrderHandler{}
}

// CurrentOrder returns the last completed order. Reading it records a
// medicine order in the medical history once per order id.
func (h *OrderHandler) CurrentOrder(c *fiber.Ctx) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}

	record, ok := s.CurrentOrder()
	if !ok {
		return failure(c, fiber.StatusNotFound, "No order found", fiber.Map{"redirect": checkout.PageShop})
	}

	recorded, err := checkout.Confirm(record, s.History())
	if err != nil {
		log.Printf("[Orders] history update for %s failed: %v", record.OrderID, err)
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"data":             record,
		"itemCount":        record.ItemCount(),
		"paymentMethod":    record.PaymentMethod.DisplayName(),
		"medicineRecorded": recorded,
	})
}

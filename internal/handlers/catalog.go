package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/example/carcino/internal/booking"
	"github.com/example/carcino/internal/catalog"
	"github.com/example/carcino/internal/history"
	"github.com/example/carcino/internal/utils"
)

// CatalogHandler serves products, doctors and appointment booking.
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

func queryDecimal(c *fiber.Ctx, key string) *decimal.Decimal {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}

func queryBool(c *fiber.Ctx, key string) *bool {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

// ListCategories returns the shop categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": h.catalog.Categories()})
}

// ListProducts returns paginated products with optional filters.
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	products := h.catalog.Products(catalog.ProductFilter{
		Category:     c.Query("category"),
		Query:        c.Query("search"),
		MinPrice:     queryDecimal(c, "min_price"),
		MaxPrice:     queryDecimal(c, "max_price"),
		InStockOnly:  isTrue(queryBool(c, "in_stock")),
		Prescription: queryBool(c, "prescription"),
		Sort:         c.Query("sort"),
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data":    utils.Paginate(products, pg),
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    len(products),
		},
	})
}

// GetProduct returns a single product.
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	product, ok := h.catalog.Product(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

// ListDoctors returns paginated doctors with optional filters.
func (h *CatalogHandler) ListDoctors(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	doctors := h.catalog.Doctors(catalog.DoctorFilter{
		Specialty:         c.Query("specialty"),
		Condition:         c.Query("condition"),
		Query:             c.Query("search"),
		MaxFee:            queryDecimal(c, "max_fee"),
		AvailableToday:    isTrue(queryBool(c, "available_today")),
		VideoConsultation: isTrue(queryBool(c, "video")),
		Sort:              c.Query("sort"),
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data":    utils.Paginate(doctors, pg),
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    len(doctors),
		},
	})
}

// GetDoctor returns a single doctor.
func (h *CatalogHandler) GetDoctor(c *fiber.Ctx) error {
	doctor, ok := h.catalog.Doctor(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "doctor not found")
	}
	return c.JSON(fiber.Map{"success": true, "data": doctor})
}

// DoctorSlots lists the bookable times and the fee breakdown of a doctor.
func (h *CatalogHandler) DoctorSlots(c *fiber.Ctx) error {
	doctor, ok := h.catalog.Doctor(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "doctor not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"slots":           booking.TimeSlots(),
			"consultationFee": doctor.ConsultationFee,
			"platformFee":     booking.PlatformFee,
			"totalFee":        doctor.ConsultationFee.Add(booking.PlatformFee),
		},
	})
}

// BookAppointment runs the booking wizard over the submitted form and records
// the appointment in the medical history.
func (h *CatalogHandler) BookAppointment(c *fiber.Ctx) error {
	doctor, ok := h.catalog.Doctor(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "doctor not found")
	}

	var form booking.Form
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	s, err := currentSession(c)
	if err != nil {
		return err
	}

	item, err := booking.Book(history.DoctorSummary{
		ID:              doctor.ID,
		Name:            doctor.Name,
		Specialty:       doctor.Specialty,
		Location:        doctor.Location,
		ConsultationFee: doctor.ConsultationFee,
	}, form, s.History())
	if err != nil {
		var stepErr *booking.StepError
		if errors.As(err, &stepErr) {
			return failure(c, fiber.StatusUnprocessableEntity, "Please complete all required fields", fiber.Map{
				"step":   int(stepErr.Step),
				"fields": stepErr.Fields,
			})
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

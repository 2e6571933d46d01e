package handlers

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/example/carcino/internal/history"
	"github.com/example/carcino/internal/services"
	"github.com/example/carcino/internal/utils"
)

// HistoryHandler exposes the session's medical history.
type HistoryHandler struct{}

// NewHistoryHandler constructs HistoryHandler.
func NewHistoryHandler() *HistoryHandler {
	return &HistoryHandler{}
}

func (h *HistoryHandler) filtered(c *fiber.Ctx) ([]history.Item, error) {
	s, err := currentSession(c)
	if err != nil {
		return nil, err
	}

	hist := s.History()
	kind := c.Query("type")
	if kind == "" || kind == "all" {
		return hist.Items(), nil
	}

	parsed, err := history.ParseKind(kind)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid history type")
	}
	return hist.ByKind(parsed), nil
}

// ListHistory returns history items, newest first, optionally filtered by type.
func (h *HistoryHandler) ListHistory(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	items, err := h.filtered(c)
	if err != nil {
		return err
	}

	newest := make([]history.Item, len(items))
	for i, item := range items {
		newest[len(items)-1-i] = item
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    utils.Paginate(newest, pg),
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    len(newest),
		},
	})
}

// ClearHistory removes every history item.
func (h *HistoryHandler) ClearHistory(c *fiber.Ctx) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}

	s.History().Clear()
	return c.JSON(fiber.Map{"success": true})
}

// ExportHistory downloads the history as an xlsx workbook.
func (h *HistoryHandler) ExportHistory(c *fiber.Ctx) error {
	items, err := h.filtered(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := services.ExportHistory(&buf, items); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build export")
	}

	c.Set(fiber.HeaderContentType, services.ExportContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "medical-history.xlsx"))
	return c.Send(buf.Bytes())
}

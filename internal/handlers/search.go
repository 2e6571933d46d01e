package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/carcino/internal/services"
)

// LookupHandler serves medical search and reverse geocoding.
type LookupHandler struct {
	search   *services.SearchClient
	geocoder *services.GeocoderClient
}

// NewLookupHandler constructs LookupHandler.
func NewLookupHandler(search *services.SearchClient, geocoder *services.GeocoderClient) *LookupHandler {
	return &LookupHandler{search: search, geocoder: geocoder}
}

// Search answers medical queries. Upstream failures yield fallback results.
func (h *LookupHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Query parameter 'q' is required"})
	}

	return c.JSON(h.search.Search(c.UserContext(), query))
}

// ReverseGeocode suggests delivery address fields for a map position.
func (h *LookupHandler) ReverseGeocode(c *fiber.Ctx) error {
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(c.Query("lat")), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(c.Query("lng")), 64)
	if latErr != nil || lngErr != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fiber.NewError(fiber.StatusBadRequest, "valid lat and lng are required")
	}

	suggestion, err := h.geocoder.Reverse(c.UserContext(), lat, lng)
	if err != nil {
		return failure(c, fiber.StatusBadGateway, "Could not retrieve address details. Please fill them manually.", nil)
	}

	return c.JSON(fiber.Map{"success": true, "data": suggestion})
}

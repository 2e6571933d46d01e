package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/carcino/internal/middleware"
	"github.com/example/carcino/internal/session"
)

func currentSession(c *fiber.Ctx) (*session.Session, error) {
	s := middleware.GetSession(c)
	if s == nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "session unavailable")
	}
	return s, nil
}

func failure(c *fiber.Ctx, status int, message string, extra fiber.Map) error {
	body := fiber.Map{"success": false, "error": message}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

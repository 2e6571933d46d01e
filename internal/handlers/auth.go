package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/carcino/internal/middleware"
	"github.com/example/carcino/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	identity services.IdentityProvider
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(identity services.IdentityProvider) *AuthHandler {
	return &AuthHandler{identity: identity}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account with the configured identity provider.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.Registration
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	result, err := h.identity.Register(c.UserContext(), req)
	if err != nil {
		var refusal *services.IdentityError
		switch {
		case errors.Is(err, services.ErrMissingFields), errors.Is(err, services.ErrPasswordTooShort):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.As(err, &refusal):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": refusal.Message})
		default:
			log.Printf("[Auth] registration error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}
	}

	body := fiber.Map{
		"message": "Registration successful",
		"user":    result.Account,
	}
	if result.Token != "" {
		body["token"] = result.Token
		setAuthCookie(c, result.Token)
	}
	return c.JSON(body)
}

// Login authenticates an existing user when the provider supports it.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	auth, ok := h.identity.(services.Authenticator)
	if !ok {
		return fiber.NewError(fiber.StatusNotImplemented, "login is handled by the identity provider")
	}

	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	setAuthCookie(c, result.Token)
	return c.JSON(fiber.Map{
		"success": true,
		"user":    result.Account,
		"token":   result.Token,
	})
}

// Me returns the identity behind the bearer token.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    fiber.Map{"id": claims.UserID, "email": claims.Email},
	})
}

func setAuthCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/carcino/internal/config"
	"github.com/example/carcino/internal/session"
	"github.com/example/carcino/internal/utils"
)

const (
	// SessionHeader carries the session id on requests and responses.
	SessionHeader = "X-Session-ID"
	// SessionCookie carries the session id for browsers.
	SessionCookie = "carcino_session"
	// AuthCookie is the bearer token cookie set by the web client.
	AuthCookie = "auth-token"

	sessionContextKey = "currentSession"
	userContextKey    = "currentUser"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// SessionMiddleware resolves the caller's session and opens it. A valid
// local bearer token maps the caller to the session of its user; otherwise
// the X-Session-ID header or the session cookie is used, and a new session
// is issued when neither is present.
func SessionMiddleware(cfg *config.Config, manager *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := ""

		if token := BearerToken(c); token != "" {
			if claims, err := utils.ParseToken(cfg.JWTSecret, token); err == nil {
				c.Locals(userContextKey, claims)
				id = "user:" + claims.UserID.String()
			}
		}

		if id == "" {
			id = requestedSessionID(c)
		}

		if id == "" {
			id = session.NewID()
			c.Cookie(&fiber.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				Expires:  time.Now().Add(cfg.SessionTTL),
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}

		c.Set(SessionHeader, id)
		c.Locals(sessionContextKey, manager.Open(c.UserContext(), id))
		return c.Next()
	}
}

func requestedSessionID(c *fiber.Ctx) string {
	for _, candidate := range []string{c.Get(SessionHeader), c.Cookies(SessionCookie)} {
		candidate = strings.TrimSpace(candidate)
		if sessionIDPattern.MatchString(candidate) {
			return candidate
		}
	}
	return ""
}

// GetSession extracts the session opened by SessionMiddleware.
func GetSession(c *fiber.Ctx) *session.Session {
	if s, ok := c.Locals(sessionContextKey).(*session.Session); ok {
		return s
	}
	return nil
}

// GetCurrentUser returns the authenticated user's claims, if any.
func GetCurrentUser(c *fiber.Ctx) (utils.TokenClaims, bool) {
	claims, ok := c.Locals(userContextKey).(utils.TokenClaims)
	return claims, ok
}

// BearerToken returns the token from the Authorization header or the
// auth-token cookie.
func BearerToken(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(AuthCookie)
}

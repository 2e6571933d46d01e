package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/carcino/internal/checkout"
	"github.com/example/carcino/internal/config"
	"github.com/example/carcino/internal/session"
	"github.com/example/carcino/internal/store"
	"github.com/example/carcino/internal/utils"
)

func newSessionApp(t *testing.T) (*fiber.App, *config.Config) {
	cfg := &config.Config{JWTSecret: "secret", SessionTTL: time.Hour}
	registry := store.NewRegistry(store.NewMemoryBackend(), time.Hour)
	t.Cleanup(registry.Close)

	app := fiber.New()
	app.Use(SessionMiddleware(cfg, session.NewManager(registry, checkout.NewSimulatedGateway())))
	app.Get("/", func(c *fiber.Ctx) error {
		s := GetSession(c)
		_, authed := GetCurrentUser(c)
		return c.JSON(fiber.Map{"id": s.ID, "authed": authed})
	})
	return app, cfg
}

func sessionIDOf(t *testing.T, app *fiber.App, req *http.Request) (string, *http.Response) {
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.Header.Get(SessionHeader), resp
}

func TestSessionMiddleware_IssuesCookie(t *testing.T) {
	app, _ := newSessionApp(t)

	id, resp := sessionIDOf(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, id)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, id, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestSessionMiddleware_ReusesHeaderAndCookie(t *testing.T) {
	app, _ := newSessionApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, "client-session-1")
	id, resp := sessionIDOf(t, app, req)
	assert.Equal(t, "client-session-1", id)
	assert.Empty(t, resp.Cookies())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "cookie-session-1"})
	id, _ = sessionIDOf(t, app, req)
	assert.Equal(t, "cookie-session-1", id)
}

func TestSessionMiddleware_RejectsMalformedIDs(t *testing.T) {
	app, _ := newSessionApp(t)

	for _, bad := range []string{"short", "user:" + uuid.NewString(), "has space in it", "../../etc/passwd"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(SessionHeader, bad)
		id, _ := sessionIDOf(t, app, req)
		assert.NotEqual(t, bad, id)
		assert.NotEmpty(t, id)
	}
}

func TestSessionMiddleware_BearerMapsToUser(t *testing.T) {
	app, cfg := newSessionApp(t)
	userID := uuid.New()
	token, err := utils.GenerateToken(cfg.JWTSecret, userID, "a@b.co", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(SessionHeader, "ignored-session")
	id, _ := sessionIDOf(t, app, req)
	assert.Equal(t, "user:"+userID.String(), id)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookie, Value: token})
	id, _ = sessionIDOf(t, app, req)
	assert.Equal(t, "user:"+userID.String(), id)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	req.Header.Set(SessionHeader, "anon-session-1")
	id, _ = sessionIDOf(t, app, req)
	assert.Equal(t, "anon-session-1", id)
}

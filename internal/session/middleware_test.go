package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionApp(store Store) *fiber.App {
	app := fiber.New()
	mw := NewMiddleware(store, CookieConfig{Name: "test_session", MaxAge: time.Hour})
	app.Use(mw.Handle)
	app.Get("/", func(c *fiber.Ctx) error {
		sess, ok := FromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(sess.ID())
	})
	return app
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestMiddlewareIssuesCookie(t *testing.T) {
	app := newSessionApp(NewMemoryStore(time.Hour))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	cookie := findCookie(resp.Cookies(), "test_session")
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestMiddlewareReusesValidCookie(t *testing.T) {
	app := newSessionApp(NewMemoryStore(time.Hour))
	const sid = "7f1c4f0e-8d0b-4a55-9b43-1b1b4a0f7a11"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: sid})
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	cookie := findCookie(resp.Cookies(), "test_session")
	require.NotNil(t, cookie)
	assert.Equal(t, sid, cookie.Value)
}

func TestMiddlewareReplacesForgedCookie(t *testing.T) {
	app := newSessionApp(NewMemoryStore(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: "../../etc"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	cookie := findCookie(resp.Cookies(), "test_session")
	require.NotNil(t, cookie)
	assert.NotEqual(t, "../../etc", cookie.Value)
}

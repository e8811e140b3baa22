package session

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const contextKey = "portal_session"

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Middleware attaches a session Context to each request, issuing a cookie when needed.
type Middleware struct {
	store  Store
	cookie CookieConfig
}

// NewMiddleware constructs middleware.
func NewMiddleware(store Store, cookie CookieConfig) *Middleware {
	if cookie.Name == "" {
		cookie.Name = "portal_session"
	}
	return &Middleware{store: store, cookie: cookie}
}

// Handle resolves or creates the session for the request.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	// fiber reuses request buffers; the id outlives the request as a store key.
	sid := strings.Clone(c.Cookies(m.cookie.Name))
	if _, err := uuid.Parse(sid); err != nil {
		sid = uuid.NewString()
	}

	// Refresh on every request so MaxAge tracks activity.
	c.Cookie(&fiber.Cookie{
		Name:     m.cookie.Name,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(m.cookie.MaxAge.Seconds()),
		Secure:   m.cookie.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	c.Locals(contextKey, NewContext(sid, m.store))
	return c.Next()
}

// FromContext retrieves the session attached by Middleware.
func FromContext(c *fiber.Ctx) (*Context, bool) {
	val := c.Locals(contextKey)
	if val == nil {
		return nil, false
	}
	sess, ok := val.(*Context)
	return sess, ok
}

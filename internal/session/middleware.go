package session

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Middleware derives the caller identity for every request. The token is read
// from the session cookie first, then from a bearer Authorization header.
// Verification failures are swallowed: a bad token and no token both leave the
// request anonymous, they are indistinguishable downstream.
type Middleware struct {
	tokens     *TokenManager
	cookieName string
}

// NewMiddleware constructs the identity middleware.
func NewMiddleware(tokens *TokenManager, cookieName string) *Middleware {
	return &Middleware{tokens: tokens, cookieName: cookieName}
}

// Handle extracts and verifies the session token, if present, and stores the
// identity in the request context. It never rejects a request; enforcement
// happens in the services.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	token := c.Cookies(m.cookieName)
	if token == "" {
		token = bearerToken(c.Get(fiber.HeaderAuthorization))
	}

	if token != "" {
		if identity, err := m.tokens.Verify(token); err == nil {
			c.SetUserContext(WithIdentity(c.UserContext(), identity))
		}
	}
	return c.Next()
}

// SetCookie delivers the session token as an HTTP-only cookie whose max-age
// matches the token's own expiry.
func (m *Middleware) SetCookie(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt) / time.Second),
		HTTPOnly: true,
	})
}

// ClearCookie instructs the client to discard the session cookie. The token
// itself stays cryptographically valid until its embedded expiry.
func (m *Middleware) ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		MaxAge:   -1,
		HTTPOnly: true,
	})
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

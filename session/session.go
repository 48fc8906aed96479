// Package session turns a verified bearer token into a per-request Session.
package session

import (
	"log"
	"strings"
	"time"

	"github.com/example/task-tracker/apperr"
	"github.com/example/task-tracker/token"
	"github.com/gofiber/fiber/v2"
)

const localsKey = "session"

// Verifier checks a raw token and returns its claims.
type Verifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// Session is the authenticated subject of a single request. It is rebuilt
// from the token on every request and never stored between requests.
type Session struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Middleware rejects requests without a valid bearer token and stores the
// resulting Session in the request locals.
func Middleware(verifier Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		scheme, raw, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return unauthorized(c, "Invalid authorization header format. Use: Bearer <token>")
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			return unauthorized(c, "Token is required")
		}

		claims, err := verifier.Verify(raw)
		if err != nil {
			log.Printf("[session] Rejected token on %s %s: %v", c.Method(), c.Path(), err)
			return unauthorized(c, "Invalid or expired token")
		}

		s := &Session{UserID: claims.UserID()}
		if claims.IssuedAt != nil {
			s.IssuedAt = claims.IssuedAt.Time
		}
		if claims.ExpiresAt != nil {
			s.ExpiresAt = claims.ExpiresAt.Time
		}
		c.Locals(localsKey, s)

		return c.Next()
	}
}

// From returns the Session stored by Middleware.
func From(c *fiber.Ctx) (*Session, bool) {
	s, ok := c.Locals(localsKey).(*Session)
	if !ok || s == nil || s.UserID == "" {
		return nil, false
	}
	return s, true
}

func unauthorized(c *fiber.Ctx, message string) error {
	c.Set(fiber.HeaderWWWAuthenticate, `Bearer realm="task-tracker"`)
	return apperr.Respond(c, fiber.StatusUnauthorized, "unauthorized", message)
}

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/auth"
)

const sessionKey = "session"

// Session resolves the session cookie and, when valid, stores the
// parsed auth.Session in the echo context. Requests without a valid
// cookie pass through unauthenticated; guards decide whether that is
// acceptable per route.
func Session(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s, ok := auth.FromRequest(c, secret); ok {
				c.Set(sessionKey, s)
			}
			return next(c)
		}
	}
}

// CurrentSession returns the session placed in the context by Session.
func CurrentSession(c echo.Context) (auth.Session, bool) {
	s, ok := c.Get(sessionKey).(auth.Session)
	return s, ok
}

// RequireAuth rejects unauthenticated requests with 401.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentSession(c); !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			return next(c)
		}
	}
}

// RequirePermission rejects sessions whose role lacks the named
// permission with 403. Implies RequireAuth.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, ok := CurrentSession(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if !auth.Allowed(s.Role, permission) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
			}
			return next(c)
		}
	}
}

// Package auth issues and verifies the signed session tokens carried in the
// HTTP-only "session" cookie, and owns the static role permission table.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// CookieName is the name of the session cookie set on login.
const CookieName = "session"

// Session is the authenticated identity resolved from a valid token.
type Session struct {
	UserID   uint64
	Username string
	Role     string
}

var ErrInvalidToken = errors.New("invalid session token")

// NewSessionToken builds and signs an HS256 JWT for a user. The token
// carries the subject (user id), username and role, plus exp/iat. ttlHours
// controls the cookie and token lifetime together.
func NewSessionToken(secret string, userID uint64, username, role string, ttlHours int) (string, time.Time, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlHours) * time.Hour)
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"role":     role,
		"exp":      exp.Unix(),
		"iat":      time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseSessionToken verifies the signature and expiry of a session token and
// returns the Session it encodes. Callers get ErrInvalidToken for anything
// that should be treated as "not logged in" rather than a server error.
func ParseSessionToken(secret, raw string) (Session, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Session{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, ErrInvalidToken
	}
	s := Session{}
	switch sub := claims["sub"].(type) {
	case float64:
		s.UserID = uint64(sub)
	default:
		return Session{}, ErrInvalidToken
	}
	if v, ok := claims["username"].(string); ok {
		s.Username = v
	}
	if v, ok := claims["role"].(string); ok {
		s.Role = v
	}
	if s.UserID == 0 || s.Role == "" {
		return Session{}, ErrInvalidToken
	}
	return s, nil
}

// SetCookie attaches the session cookie to the response. HttpOnly keeps the
// token away from page scripts; SameSite=Lax matches how the UI navigates.
func SetCookie(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie immediately.
func ClearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest resolves the session from the request cookie. It returns
// (Session{}, false) for a missing or invalid cookie; it never errors, so
// callers can treat anonymous requests uniformly.
func FromRequest(c echo.Context, secret string) (Session, bool) {
	ck, err := c.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return Session{}, false
	}
	s, err := ParseSessionToken(secret, ck.Value)
	if err != nil {
		return Session{}, false
	}
	return s, true
}

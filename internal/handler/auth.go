package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/auth"
	"github.com/stagedesk/stagedesk/internal/repository"
	"github.com/stagedesk/stagedesk/internal/utils"
)

type AuthHandler struct {
	Users      *repository.UserRepo
	JWTSecret  string
	SessionTTL int // hours
}

// Login handles POST /api/auth/login. A valid username/password pair
// sets the session cookie; the response never distinguishes a bad
// username from a bad password.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	username := strings.ToLower(strings.TrimSpace(body.Username))
	if username == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return jsonError(c, err)
	}
	if !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !utils.VerifyPassword(u.PasswordHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, exp, err := auth.NewSessionToken(h.JWTSecret, u.ID, u.Username, u.Role, h.SessionTTL)
	if err != nil {
		return jsonError(c, err)
	}
	auth.SetCookie(c, token, exp)

	return c.JSON(http.StatusOK, echo.Map{
		"id":       u.ID,
		"username": u.Username,
		"role":     u.Role,
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c echo.Context) error {
	auth.ClearCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me handles GET /api/auth/me and returns the authenticated identity
// together with its permission flags so the UI can hide what the role
// cannot do.
func (h *AuthHandler) Me(c echo.Context) error {
	s := mustSession(c)
	perms := map[string]bool{}
	for _, p := range []string{
		auth.PermManageUsers, auth.PermManageEquipment, auth.PermManageClients,
		auth.PermManageEvents, auth.PermManageQuotes, auth.PermManageRentals,
		auth.PermManageMaintenance, auth.PermManagePartners, auth.PermViewReports,
	} {
		perms[p] = auth.Allowed(s.Role, p)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":          s.UserID,
		"username":    s.Username,
		"role":        s.Role,
		"permissions": perms,
	})
}

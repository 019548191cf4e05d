package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/auth"
	"github.com/stagedesk/stagedesk/internal/repository"
)

// UserHandler serves the admin user management endpoints.
type UserHandler struct {
	Users         *repository.UserRepo
	Notifications *repository.NotificationRepo
	Audit         *Auditor
	BcryptCost    int
}

// notify drops an inbox entry for the affected user, best effort.
func (h *UserHandler) notify(c echo.Context, userID uint64, kind, title, body string) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	_ = h.Notifications.Create(ctx, &repository.Notification{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
	})
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Users.List(ctx)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *UserHandler) Create(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	username := strings.TrimSpace(body.Username)
	if username == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}
	if len(body.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	if !auth.ValidRole(body.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Users.Create(ctx, username, body.Password, strings.ToLower(body.Role), h.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return jsonError(c, err)
	}
	h.Audit.record(c, "user", id, "created")

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

// Update handles PUT /api/users/:id: role and active-flag changes under
// an optimistic version check.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Role     string `json:"role"`
		IsActive bool   `json:"is_active"`
		Version  uint64 `json:"version"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !auth.ValidRole(body.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	if s := mustSession(c); s.UserID == id && !body.IsActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot deactivate your own account"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Update(ctx, id, strings.ToLower(body.Role), body.IsActive, body.Version); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "user", id, "updated")
	h.notify(c, id, "account", "Account updated", "Your role or account status was changed by an administrator.")

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// SetPassword handles PUT /api/users/:id/password.
func (h *UserHandler) SetPassword(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetPassword(ctx, id, body.Password, h.BcryptCost); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "user", id, "password_changed")
	h.notify(c, id, "account", "Password changed", "Your password was changed by an administrator.")
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

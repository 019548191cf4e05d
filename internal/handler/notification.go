package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/repository"
)

type NotificationHandler struct {
	Notifications *repository.NotificationRepo
}

func (h *NotificationHandler) List(c echo.Context) error {
	s := mustSession(c)
	unreadOnly := c.QueryParam("unread") == "true"

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Notifications.ListForUser(ctx, s.UserID, unreadOnly)
	if err != nil {
		return jsonError(c, err)
	}
	unread, err := h.Notifications.UnreadCount(ctx, s.UserID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "unread": unread})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, id, mustSession(c).UserID); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "marked read"})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Notifications.MarkAllRead(ctx, mustSession(c).UserID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"marked": n})
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notifications.Delete(ctx, id, mustSession(c).UserID); err != nil {
		return jsonError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

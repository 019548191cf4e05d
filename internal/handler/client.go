package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/repository"
)

type ClientHandler struct {
	Clients *repository.ClientRepo
	Audit   *Auditor
}

func (h *ClientHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Clients.List(ctx)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *ClientHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cl, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, cl)
}

type clientBody struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
	Version uint64 `json:"version"`
}

func (h *ClientHandler) Create(c echo.Context) error {
	var body clientBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cl := &repository.Client{
		Name:    strings.TrimSpace(body.Name),
		Email:   body.Email,
		Phone:   body.Phone,
		Address: body.Address,
		Notes:   body.Notes,
	}
	if err := h.Clients.Create(ctx, cl); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "client", cl.ID, "created")
	return c.JSON(http.StatusCreated, cl)
}

func (h *ClientHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body clientBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cl := &repository.Client{
		ID:      id,
		Name:    strings.TrimSpace(body.Name),
		Email:   body.Email,
		Phone:   body.Phone,
		Address: body.Address,
		Notes:   body.Notes,
		Version: body.Version,
	}
	if err := h.Clients.Update(ctx, cl); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "client", id, "updated")

	updated, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *ClientHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Clients.Delete(ctx, id); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "client", id, "deleted")
	return c.NoContent(http.StatusNoContent)
}
